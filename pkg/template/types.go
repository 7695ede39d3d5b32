package template

import "github.com/ozitag/tager-admin-pages/pkg/fields"

// Short is the list form of a template.
type Short struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Full is a template with its field definitions.
type Full struct {
	ID     string              `json:"id" yaml:"id"`
	Label  string              `json:"label" yaml:"label"`
	Fields []fields.Definition `json:"fields" yaml:"fields"`

	// Source records where the template was loaded from, when known.
	Source string `json:"-" yaml:"-"`
}

// Short returns the list form of t.
func (t Full) Short() Short {
	return Short{ID: t.ID, Label: t.Label}
}

// DisplayLabel returns the label, falling back to the id.
func (t Full) DisplayLabel() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}

// DisplayLabel returns the label, falling back to the id.
func (s Short) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}
