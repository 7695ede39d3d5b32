package page

import (
	"strconv"
	"strings"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// Option is a labelled choice in a select input.
type Option[T any] struct {
	Value T      `json:"value"`
	Label string `json:"label"`
}

// StatusOptions lists the selectable statuses; the first one is the default.
func StatusOptions() []Option[Status] {
	return []Option[Status]{
		{Value: StatusPublished, Label: "Published"},
		{Value: StatusDraft, Label: "Draft"},
	}
}

// FormValues holds the fixed page attributes edited alongside the template
// field tree.
type FormValues struct {
	Title    string
	Status   Option[Status]
	Path     string
	Parent   *Option[int64]
	Image    *fields.File
	Excerpt  string
	Body     string
	Datetime string

	PageTitle               string
	PageDescription         string
	PageKeywords            string
	OpenGraphTitle          string
	OpenGraphDescription    string
	OpenGraphImage          *fields.File
	HiddenFromSeoIndexation bool

	Template *Option[string]
}

// FormValuesFromPage builds the initial form values. A nil page yields the
// blank values of a new page, whose parent is preselected from
// initialParentID when it matches one of parentOptions.
func FormValuesFromPage(p *Full, templates []template.Short, parentOptions []Option[int64], initialParentID string) FormValues {
	statuses := StatusOptions()

	if p == nil {
		values := FormValues{Status: statuses[0]}
		for _, option := range parentOptions {
			if strconv.FormatInt(option.Value, 10) == strings.TrimSpace(initialParentID) {
				parent := option
				values.Parent = &parent
				break
			}
		}
		return values
	}

	values := FormValues{
		Status:                  statuses[0],
		Title:                   p.Title,
		Path:                    p.Path,
		Image:                   cloneFile(p.Image),
		Excerpt:                 deref(p.Excerpt),
		Body:                    deref(p.Body),
		Datetime:                truncateDate(deref(p.Datetime)),
		PageTitle:               deref(p.PageTitle),
		PageDescription:         deref(p.PageDescription),
		PageKeywords:            deref(p.PageKeywords),
		OpenGraphTitle:          deref(p.OpenGraphTitle),
		OpenGraphDescription:    deref(p.OpenGraphDescription),
		OpenGraphImage:          cloneFile(p.OpenGraphImage),
		HiddenFromSeoIndexation: p.HiddenFromSeoIndexation,
	}
	for _, option := range statuses {
		if option.Value == p.Status {
			values.Status = option
			break
		}
	}
	if p.Parent != nil {
		for _, option := range parentOptions {
			if option.Value == p.Parent.ID {
				parent := option
				values.Parent = &parent
				break
			}
		}
	}
	for _, tpl := range templates {
		if tpl.ID == p.Template {
			values.Template = &Option[string]{Value: tpl.ID, Label: tpl.Label}
			break
		}
	}
	return values
}

// CreationPayload converts form values into the create request body.
func CreationPayload(values FormValues) CreatePayload {
	return CreatePayload{
		Title:    values.Title,
		Status:   values.Status.Value,
		Parent:   parentID(values.Parent),
		Path:     values.Path,
		Template: templateID(values.Template),
	}
}

// UpdatePayloadFrom converts form values and the flattened template fields
// into the update request body.
func UpdatePayloadFrom(values FormValues, templateFields []fields.OutgoingField) UpdatePayload {
	if templateFields == nil {
		templateFields = []fields.OutgoingField{}
	}
	return UpdatePayload{
		Title:                   values.Title,
		Status:                  values.Status.Value,
		Parent:                  parentID(values.Parent),
		Image:                   fileID(values.Image),
		Excerpt:                 values.Excerpt,
		Body:                    values.Body,
		Datetime:                values.Datetime,
		Path:                    values.Path,
		PageTitle:               values.PageTitle,
		PageDescription:         values.PageDescription,
		PageKeywords:            values.PageKeywords,
		OpenGraphTitle:          values.OpenGraphTitle,
		OpenGraphDescription:    values.OpenGraphDescription,
		OpenGraphImage:          fileID(values.OpenGraphImage),
		HiddenFromSeoIndexation: values.HiddenFromSeoIndexation,
		Template:                templateID(values.Template),
		TemplateFields:          templateFields,
	}
}

// NameWithDepth prefixes title with two dashes per nesting level.
func NameWithDepth(title string, depth int) string {
	if depth <= 0 {
		return title
	}
	return strings.Repeat("-", depth*2) + " " + title
}

// ParentOptions turns a page list into parent choices labelled by depth.
func ParentOptions(pages []Short) []Option[int64] {
	out := make([]Option[int64], 0, len(pages))
	for _, p := range pages {
		out = append(out, Option[int64]{Value: p.ID, Label: NameWithDepth(p.Title, p.Depth)})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncateDate keeps the YYYY-MM-DD prefix of a datetime string.
func truncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func cloneFile(f *fields.File) *fields.File {
	if f == nil {
		return nil
	}
	file := *f
	return &file
}

func parentID(option *Option[int64]) *int64 {
	if option == nil {
		return nil
	}
	id := option.Value
	return &id
}

func templateID(option *Option[string]) *string {
	if option == nil {
		return nil
	}
	id := option.Value
	return &id
}

func fileID(f *fields.File) *int64 {
	if f == nil {
		return nil
	}
	id := f.ID
	return &id
}
