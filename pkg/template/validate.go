package template

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

//go:embed schemas/template.schema.json
var schemaFS embed.FS

const schemaURL = "template.schema.json"

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding. Path is a JSON pointer into the
// document; Field is the dotted field path when the issue concerns a field
// definition.
type Issue struct {
	Path     string   `json:"path,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) String() string {
	location := i.Field
	if location == "" {
		location = i.Path
	}
	if location == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, location, i.Message)
}

// Result captures the outcome of validating one document. Valid is false
// when at least one error-severity issue was found; warnings alone keep the
// document valid.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Errors returns the error-severity issues.
func (r Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity issues.
func (r Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r Result) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// InvalidError reports a template document that failed validation.
type InvalidError struct {
	Source string
	Issues []Issue
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("template: %s is invalid: %s", e.Source, strings.Join(parts, "; "))
}

// ValidatorOption customises a Validator.
type ValidatorOption func(*Validator)

// WithKnownKind marks an additional kind token as known, so templates using
// a custom registered handler do not produce warnings.
func WithKnownKind(kind fields.Kind) ValidatorOption {
	return func(v *Validator) {
		v.kinds[kind.Normalize()] = struct{}{}
	}
}

// WithRegistryKinds marks every kind registered in reg as known.
func WithRegistryKinds(reg *fields.Registry) ValidatorOption {
	return func(v *Validator) {
		for _, kind := range reg.Kinds() {
			v.kinds[kind] = struct{}{}
		}
	}
}

// Validator checks template documents against the embedded schema and the
// structural rules of field trees.
type Validator struct {
	schema  *jsonschema.Schema
	kinds   map[fields.Kind]struct{}
	printer *message.Printer
}

// NewValidator compiles the embedded template schema.
func NewValidator(opts ...ValidatorOption) (*Validator, error) {
	data, err := schemaFS.ReadFile("schemas/template.schema.json")
	if err != nil {
		return nil, fmt.Errorf("template: read embedded schema: %w", err)
	}
	doc, err := unmarshalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("template: parse embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("template: add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("template: compile schema: %w", err)
	}

	v := &Validator{
		schema:  schema,
		kinds:   make(map[fields.Kind]struct{}),
		printer: message.NewPrinter(language.English),
	}
	for _, kind := range fields.KnownKinds() {
		v.kinds[kind] = struct{}{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// MustNewValidator panics when the embedded schema fails to compile.
func MustNewValidator(opts ...ValidatorOption) *Validator {
	v, err := NewValidator(opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a raw JSON or YAML template document.
func (v *Validator) Validate(data []byte) Result {
	doc, err := decodeDocument(data)
	if err != nil {
		return Result{Issues: []Issue{{Message: err.Error(), Severity: SeverityError}}}
	}

	issues := v.schemaIssues(doc)
	if len(issues) == 0 {
		// The structural rules need a well-formed document.
		var tpl Full
		encoded, err := json.Marshal(doc)
		if err == nil {
			err = json.Unmarshal(encoded, &tpl)
		}
		if err != nil {
			issues = append(issues, Issue{Message: err.Error(), Severity: SeverityError})
		} else {
			issues = append(issues, v.checkTree(tpl.Fields, "/fields", "")...)
		}
	}
	return newResult(issues)
}

// ValidateTemplate applies the structural rules to an already decoded
// template.
func (v *Validator) ValidateTemplate(tpl Full) Result {
	var issues []Issue
	if strings.TrimSpace(tpl.ID) == "" {
		issues = append(issues, Issue{Path: "/id", Message: "template id is required", Severity: SeverityError})
	}
	issues = append(issues, v.checkTree(tpl.Fields, "/fields", "")...)
	return newResult(issues)
}

func newResult(issues []Issue) Result {
	result := Result{Valid: true, Issues: issues}
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			result.Valid = false
			break
		}
	}
	return result
}

func (v *Validator) schemaIssues(doc any) []Issue {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Issue{{Message: err.Error(), Severity: SeverityError}}
	}
	return v.collect(verr)
}

// collect flattens a validation error tree into its leaf causes.
func (v *Validator) collect(verr *jsonschema.ValidationError) []Issue {
	if len(verr.Causes) > 0 {
		var issues []Issue
		for _, cause := range verr.Causes {
			issues = append(issues, v.collect(cause)...)
		}
		return issues
	}

	pointer := ""
	if len(verr.InstanceLocation) > 0 {
		pointer = "/" + strings.Join(verr.InstanceLocation, "/")
	}
	msg := strings.TrimSpace(verr.Error())
	if verr.ErrorKind != nil {
		msg = verr.ErrorKind.LocalizedString(v.printer)
	}
	return []Issue{{
		Path:     pointer,
		Field:    fieldPathFromPointer(pointer),
		Message:  msg,
		Severity: SeverityError,
	}}
}

func (v *Validator) checkTree(defs []fields.Definition, pointer, prefix string) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(defs))
	for i, def := range defs {
		at := pointer + "/" + strconv.Itoa(i)
		path := joinField(prefix, def.Name)

		if first, dup := seen[def.Name]; dup {
			issues = append(issues, Issue{
				Path:     at + "/name",
				Field:    path,
				Message:  fmt.Sprintf("duplicate field name %q (first defined at index %d)", def.Name, first),
				Severity: SeverityError,
			})
		} else {
			seen[def.Name] = i
		}

		kind := def.Type.Normalize()
		_, known := v.kinds[kind]
		switch {
		case kind == fields.KindRepeater:
			if len(def.Fields) == 0 {
				issues = append(issues, Issue{
					Path:     at + "/fields",
					Field:    path,
					Message:  "repeater defines no sub-fields",
					Severity: SeverityError,
				})
			}
			issues = append(issues, v.checkTree(def.Fields, at+"/fields", path)...)
		case len(def.Fields) > 0:
			issues = append(issues, Issue{
				Path:     at + "/fields",
				Field:    path,
				Message:  fmt.Sprintf("sub-fields are only allowed on %s fields, not %s", fields.KindRepeater, kind),
				Severity: SeverityError,
			})
		}
		if !known {
			issues = append(issues, Issue{
				Path:     at + "/type",
				Field:    path,
				Message:  fmt.Sprintf("unknown field type %q; values will be ignored", def.Type),
				Severity: SeverityWarning,
			})
		}
	}
	return issues
}

func joinField(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// fieldPathFromPointer turns /fields/1/fields/0/name into the dotted index
// path 1.0 of the field definition it points into.
func fieldPathFromPointer(pointer string) string {
	if pointer == "" {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	var path []string
	for i := 0; i+1 < len(segments); i += 2 {
		if segments[i] != "fields" {
			break
		}
		path = append(path, segments[i+1])
	}
	return strings.Join(path, ".")
}

func unmarshalJSON(data []byte) (any, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
