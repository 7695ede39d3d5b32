package fields

import "strings"

// Kind identifies a template field type. Values match the tokens used by the
// admin API ("STRING", "REPEATER", ...).
type Kind string

const (
	KindString   Kind = "STRING"
	KindText     Kind = "TEXT"
	KindHTML     Kind = "HTML"
	KindDate     Kind = "DATE"
	KindDateTime Kind = "DATETIME"
	KindImage    Kind = "IMAGE"
	KindFile     Kind = "FILE"
	KindGallery  Kind = "GALLERY"
	KindRepeater Kind = "REPEATER"

	// KindDefault is the fallback kind used for any token the registry does
	// not recognise. Its value is always NullValue.
	KindDefault Kind = "DEFAULT"
)

// KnownKinds lists the built-in kinds in a stable order, excluding the
// fallback.
func KnownKinds() []Kind {
	return []Kind{
		KindString,
		KindText,
		KindHTML,
		KindDate,
		KindDateTime,
		KindImage,
		KindFile,
		KindGallery,
		KindRepeater,
	}
}

// Normalize trims and upper-cases a kind token so lookups tolerate the
// casing drift seen in hand-written templates.
func (k Kind) Normalize() Kind {
	return Kind(strings.ToUpper(strings.TrimSpace(string(k))))
}

func (k Kind) String() string {
	return string(k)
}
