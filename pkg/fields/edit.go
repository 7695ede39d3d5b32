package fields

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRepeater is returned by repetition helpers for non-REPEATER fields.
	ErrNotRepeater = errors.New("fields: field is not a repeater")
	// ErrIndexOutOfRange is returned when a repetition index is invalid.
	ErrIndexOutOfRange = errors.New("fields: repetition index out of range")
	// ErrShapeMismatch is returned when a value does not fit the field kind.
	ErrShapeMismatch = errors.New("fields: value does not match field kind")
)

// The helpers below return updated copies; the field passed in is left as
// is, matching how form state is replaced rather than patched.

// SetValue returns field with value replaced. The value must be the variant
// the field kind holds.
func (e *Engine) SetValue(field Field, value Value) (Field, error) {
	want := e.registry.Lookup(field.Definition.Type).DefaultValue()
	if value == nil || !sameVariant(value, want) {
		return field, fmt.Errorf("%w: %s cannot hold %T", ErrShapeMismatch, field.Kind(), value)
	}
	field.Value = value
	return field, nil
}

// AddRepetition appends a repetition with every sub-field at its default.
func (e *Engine) AddRepetition(field Field) (Field, error) {
	repetitions, ok := field.Value.(RepeaterValue)
	if !ok {
		return field, ErrNotRepeater
	}
	next := make(RepeaterValue, len(repetitions), len(repetitions)+1)
	copy(next, repetitions)
	next = append(next, Repetition{
		ID:     e.NewID(),
		Fields: e.Merge(field.Definition.Fields, nil),
	})
	field.Value = next
	return field, nil
}

// RemoveRepetition drops the repetition at index.
func RemoveRepetition(field Field, index int) (Field, error) {
	repetitions, ok := field.Value.(RepeaterValue)
	if !ok {
		return field, ErrNotRepeater
	}
	if index < 0 || index >= len(repetitions) {
		return field, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	next := make(RepeaterValue, 0, len(repetitions)-1)
	next = append(next, repetitions[:index]...)
	next = append(next, repetitions[index+1:]...)
	field.Value = next
	return field, nil
}

// MoveRepetition moves the repetition at from to position to, shifting the
// entries in between. Identities travel with their repetitions.
func MoveRepetition(field Field, from, to int) (Field, error) {
	repetitions, ok := field.Value.(RepeaterValue)
	if !ok {
		return field, ErrNotRepeater
	}
	if from < 0 || from >= len(repetitions) {
		return field, fmt.Errorf("%w: %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= len(repetitions) {
		return field, fmt.Errorf("%w: %d", ErrIndexOutOfRange, to)
	}
	if from == to {
		return field, nil
	}
	next := make(RepeaterValue, 0, len(repetitions))
	moved := repetitions[from]
	for i, repetition := range repetitions {
		if i == from {
			continue
		}
		if i == to && to < from {
			next = append(next, moved)
		}
		next = append(next, repetition)
		if i == to && to > from {
			next = append(next, moved)
		}
	}
	field.Value = next
	return field, nil
}

// ReplaceRepetition swaps the sub-fields of the repetition at index, keeping
// its identity.
func ReplaceRepetition(field Field, index int, fields []Field) (Field, error) {
	repetitions, ok := field.Value.(RepeaterValue)
	if !ok {
		return field, ErrNotRepeater
	}
	if index < 0 || index >= len(repetitions) {
		return field, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	next := make(RepeaterValue, len(repetitions))
	copy(next, repetitions)
	next[index] = Repetition{ID: repetitions[index].ID, Fields: fields}
	field.Value = next
	return field, nil
}

// CloneTree deep-copies a tree, keeping identities. Definitions are shared.
func CloneTree(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		out[i] = cloneField(field)
	}
	return out
}

func cloneField(field Field) Field {
	switch v := field.Value.(type) {
	case FileValue:
		if v.File != nil {
			file := *v.File
			field.Value = FileValue{File: &file}
		}
	case GalleryValue:
		field.Value = append(GalleryValue{}, v...)
	case RepeaterValue:
		next := make(RepeaterValue, len(v))
		for i, repetition := range v {
			next[i] = Repetition{ID: repetition.ID, Fields: CloneTree(repetition.Fields)}
		}
		field.Value = next
	}
	return field
}
