package fields

import "encoding/json"

// Definition describes one template field. Fields is only meaningful for
// REPEATER definitions, where it lists the sub-fields every repetition holds.
// Names are the join key between definitions and incoming values and must be
// unique among siblings.
type Definition struct {
	Name   string         `json:"name" yaml:"name"`
	Label  string         `json:"label" yaml:"label"`
	Type   Kind           `json:"type" yaml:"type"`
	Meta   map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Fields []Definition   `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// DisplayLabel returns the label, falling back to the field name.
func (d Definition) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// File references an uploaded file. Only ID crosses the wire when a page is
// saved; the remaining attributes are resolved by the file service.
type File struct {
	ID       int64  `json:"id"`
	URL      string `json:"url,omitempty"`
	Name     string `json:"name,omitempty"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Field is an editable, identity-bearing instance of a Definition. ID is
// generated when the field is materialized and is never taken from server
// data.
type Field struct {
	ID         string     `json:"id"`
	Definition Definition `json:"definition"`
	Value      Value      `json:"value"`
}

// Repetition is one entry of a REPEATER value: a full sub-tree of fields
// conforming to the repeater's sub-definitions.
type Repetition struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// IncomingField is a saved value as delivered by the server: flat, keyed by
// name, with a raw kind-dependent value. Repeaters nest lists of
// IncomingField lists inside Value.
type IncomingField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// OutgoingField is the slim payload sent back to the server. Value holds a
// string, an int64 file id, []int64, [][]OutgoingField or nil depending on
// the field kind.
type OutgoingField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Name returns the definition name.
func (f Field) Name() string {
	return f.Definition.Name
}

// Kind returns the normalised definition kind.
func (f Field) Kind() Kind {
	return f.Definition.Type.Normalize()
}

// Text returns the value of a text-like field.
func (f Field) Text() (string, bool) {
	v, ok := f.Value.(TextValue)
	return string(v), ok
}

// File returns the attached file of an IMAGE or FILE field. The pointer is
// nil when nothing is attached.
func (f Field) File() (*File, bool) {
	v, ok := f.Value.(FileValue)
	return v.File, ok
}

// Gallery returns the files attached to a GALLERY field.
func (f Field) Gallery() ([]File, bool) {
	v, ok := f.Value.(GalleryValue)
	return []File(v), ok
}

// Repetitions returns the repetitions of a REPEATER field.
func (f Field) Repetitions() ([]Repetition, bool) {
	v, ok := f.Value.(RepeaterValue)
	return []Repetition(v), ok
}
