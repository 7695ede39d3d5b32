package fields

import (
	"errors"
	"strconv"
)

// SkipChildren can be returned by a VisitFunc to skip the repetitions of a
// REPEATER field.
var SkipChildren = errors.New("fields: skip children")

// VisitFunc is called for every field with its dotted path, for example
// "items.0.label" for the label of the first repetition of items.
type VisitFunc func(path string, field Field) error

// Walk visits fields depth-first in tree order.
func Walk(fields []Field, fn VisitFunc) error {
	return walk("", fields, fn)
}

func walk(prefix string, fields []Field, fn VisitFunc) error {
	for _, field := range fields {
		path := joinPath(prefix, field.Definition.Name)
		err := fn(path, field)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		repetitions, ok := field.Value.(RepeaterValue)
		if !ok {
			continue
		}
		for i, repetition := range repetitions {
			if err := walk(joinPath(path, strconv.Itoa(i)), repetition.Fields, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

// MapTree rebuilds a tree bottom-up, calling fn for every field after its
// repetitions have been rebuilt. Identities are preserved unless fn changes
// them.
func MapTree(fields []Field, fn func(Field) Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		if repetitions, ok := field.Value.(RepeaterValue); ok {
			next := make(RepeaterValue, len(repetitions))
			for j, repetition := range repetitions {
				next[j] = Repetition{ID: repetition.ID, Fields: MapTree(repetition.Fields, fn)}
			}
			field.Value = next
		}
		out[i] = fn(field)
	}
	return out
}
