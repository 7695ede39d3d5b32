package fields

// textHandler covers every kind whose value is plain text.
type textHandler struct {
	kind Kind
}

func (h textHandler) Kind() Kind { return h.kind }

func (textHandler) DefaultValue() Value { return TextValue("") }

func (h textHandler) Materialize(e *Engine, def Definition, incoming *IncomingField) Field {
	value := h.DefaultValue()
	if incoming != nil {
		if text, ok := decodeText(incoming.Value); ok {
			value = TextValue(text)
		}
	}
	return e.NewField(def, value)
}

func (textHandler) Flatten(_ *Engine, field Field) OutgoingField {
	text, _ := field.Value.(TextValue)
	return OutgoingField{Name: field.Definition.Name, Value: string(text)}
}

// fileHandler covers IMAGE and FILE: a single nullable file reference.
type fileHandler struct {
	kind Kind
}

func (h fileHandler) Kind() Kind { return h.kind }

func (fileHandler) DefaultValue() Value { return FileValue{} }

func (h fileHandler) Materialize(e *Engine, def Definition, incoming *IncomingField) Field {
	value := h.DefaultValue()
	if incoming != nil {
		if file, ok := decodeFile(incoming.Value); ok {
			value = FileValue{File: file}
		}
	}
	return e.NewField(def, value)
}

func (fileHandler) Flatten(_ *Engine, field Field) OutgoingField {
	out := OutgoingField{Name: field.Definition.Name}
	if v, ok := field.Value.(FileValue); ok && v.File != nil {
		out.Value = v.File.ID
	}
	return out
}

type galleryHandler struct{}

func (galleryHandler) Kind() Kind { return KindGallery }

func (galleryHandler) DefaultValue() Value { return GalleryValue{} }

func (h galleryHandler) Materialize(e *Engine, def Definition, incoming *IncomingField) Field {
	value := h.DefaultValue()
	if incoming != nil {
		if files, ok := decodeGallery(incoming.Value); ok {
			value = GalleryValue(files)
		}
	}
	return e.NewField(def, value)
}

func (galleryHandler) Flatten(_ *Engine, field Field) OutgoingField {
	files, _ := field.Value.(GalleryValue)
	ids := make([]int64, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}
	return OutgoingField{Name: field.Definition.Name, Value: ids}
}

// repeaterHandler materializes one identified sub-tree per incoming
// repetition, merging each against the repeater's sub-definitions.
type repeaterHandler struct{}

func (repeaterHandler) Kind() Kind { return KindRepeater }

func (repeaterHandler) DefaultValue() Value { return RepeaterValue{} }

func (repeaterHandler) Materialize(e *Engine, def Definition, incoming *IncomingField) Field {
	repetitions := RepeaterValue{}
	if incoming != nil {
		if groups, ok := decodeGroups(incoming.Value); ok {
			repetitions = make(RepeaterValue, 0, len(groups))
			for _, group := range groups {
				repetitions = append(repetitions, Repetition{
					ID:     e.NewID(),
					Fields: e.Merge(def.Fields, group),
				})
			}
		}
	}
	return e.NewField(def, repetitions)
}

func (repeaterHandler) Flatten(e *Engine, field Field) OutgoingField {
	repetitions, _ := field.Value.(RepeaterValue)
	groups := make([][]OutgoingField, 0, len(repetitions))
	for _, repetition := range repetitions {
		groups = append(groups, e.FlattenTree(repetition.Fields))
	}
	return OutgoingField{Name: field.Definition.Name, Value: groups}
}

// defaultHandler backs unknown kinds. It ignores incoming data and always
// flattens to null so the rest of the tree stays usable.
type defaultHandler struct{}

func (defaultHandler) Kind() Kind { return KindDefault }

func (defaultHandler) DefaultValue() Value { return NullValue{} }

func (defaultHandler) Materialize(e *Engine, def Definition, _ *IncomingField) Field {
	return e.NewField(def, NullValue{})
}

func (defaultHandler) Flatten(_ *Engine, field Field) OutgoingField {
	return OutgoingField{Name: field.Definition.Name, Value: nil}
}
