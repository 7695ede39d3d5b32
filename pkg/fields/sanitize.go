package fields

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans the markup held by HTML fields.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer using policy, or bluemonday's UGC policy
// when policy is nil.
func NewSanitizer(policy *bluemonday.Policy) *Sanitizer {
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return &Sanitizer{policy: policy}
}

// Tree returns a copy of fields with every HTML value sanitised, including
// those nested in repeaters. Other kinds are copied unchanged.
func (s *Sanitizer) Tree(fields []Field) []Field {
	return MapTree(fields, func(field Field) Field {
		if field.Kind() != KindHTML {
			return field
		}
		if text, ok := field.Value.(TextValue); ok {
			field.Value = TextValue(s.HTML(string(text)))
		}
		return field
	})
}

// HTML sanitises a single markup string.
func (s *Sanitizer) HTML(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return markup
	}
	return s.policy.Sanitize(markup)
}
