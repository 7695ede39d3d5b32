package fields

import "encoding/json"

// Value is the in-memory value of a Field. The variant set is closed:
// TextValue, FileValue, GalleryValue, RepeaterValue and NullValue.
type Value interface {
	isValue()
}

// TextValue backs STRING, TEXT, HTML, DATE and DATETIME fields.
type TextValue string

// FileValue backs IMAGE and FILE fields. A nil File means nothing is
// attached.
type FileValue struct {
	File *File
}

// GalleryValue backs GALLERY fields.
type GalleryValue []File

// RepeaterValue backs REPEATER fields, one entry per repetition.
type RepeaterValue []Repetition

// NullValue backs DEFAULT (unknown) fields. It is inert.
type NullValue struct{}

func (TextValue) isValue()     {}
func (FileValue) isValue()     {}
func (GalleryValue) isValue()  {}
func (RepeaterValue) isValue() {}
func (NullValue) isValue()     {}

// MarshalJSON encodes the attached file or null.
func (v FileValue) MarshalJSON() ([]byte, error) {
	if v.File == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.File)
}

// MarshalJSON encodes null.
func (NullValue) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON keeps empty galleries as [] rather than null.
func (v GalleryValue) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]File(v))
}

// MarshalJSON keeps empty repeaters as [] rather than null.
func (v RepeaterValue) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Repetition(v))
}

// sameVariant reports whether a and b are the same Value variant.
func sameVariant(a, b Value) bool {
	switch a.(type) {
	case TextValue:
		_, ok := b.(TextValue)
		return ok
	case FileValue:
		_, ok := b.(FileValue)
		return ok
	case GalleryValue:
		_, ok := b.(GalleryValue)
		return ok
	case RepeaterValue:
		_, ok := b.(RepeaterValue)
		return ok
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	default:
		return false
	}
}
