// Package page defines admin page records, the payloads used to create and
// update them, and the helpers that turn a page into form values and back.
package page

import (
	"net/url"
	"strconv"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

// Status is the publication state of a page.
type Status string

const (
	StatusPublished Status = "PUBLISHED"
	StatusDraft     Status = "DRAFT"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPublished || s == StatusDraft
}

// Parent is the slim reference a page keeps to its parent.
type Parent struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Short is a page as listed: enough to render a tree row.
type Short struct {
	ID                      int64    `json:"id"`
	Status                  Status   `json:"status"`
	Title                   string   `json:"title"`
	Path                    string   `json:"path"`
	TemplateName            string   `json:"templateName"`
	Parent                  *Parent  `json:"parent"`
	Depth                   int      `json:"depth"`
	Datetime                string   `json:"datetime"`
	SitemapPriority         *float64 `json:"sitemapPriority"`
	SitemapFrequency        *string  `json:"sitemapFrequency"`
	HiddenFromSeoIndexation bool     `json:"hiddenFromSeoIndexation"`
}

// Full is a page with its content, SEO attributes and saved template values.
type Full struct {
	ID     int64        `json:"id"`
	Status Status       `json:"status"`
	Title  string       `json:"title"`
	Image  *fields.File `json:"image"`
	Path   string       `json:"path"`
	Parent *Parent      `json:"parent"`

	Excerpt  *string `json:"excerpt"`
	Body     *string `json:"body"`
	Datetime *string `json:"datetime"`

	PageTitle               *string      `json:"pageTitle"`
	PageDescription         *string      `json:"pageDescription"`
	PageKeywords            *string      `json:"pageKeywords"`
	OpenGraphTitle          *string      `json:"openGraphTitle"`
	OpenGraphDescription    *string      `json:"openGraphDescription"`
	OpenGraphImage          *fields.File `json:"openGraphImage"`
	SitemapPriority         *float64     `json:"sitemapPriority"`
	SitemapFrequency        *string      `json:"sitemapFrequency"`
	HiddenFromSeoIndexation bool         `json:"hiddenFromSeoIndexation"`

	Template       string                 `json:"template"`
	TemplateValues []fields.IncomingField `json:"templateValues"`
}

// FileScenarios names the upload scenarios the admin uses per file slot.
type FileScenarios struct {
	Image     *string `json:"image"`
	Content   *string `json:"content"`
	OpenGraph *string `json:"openGraph"`
}

// Info is the module configuration served by /admin/pages/info.
type Info struct {
	SEOKeywordsEnabled bool          `json:"seoKeywordsEnabled"`
	FileScenarios      FileScenarios `json:"fileScenarios"`
}

// Count is the body of /admin/pages/count.
type Count struct {
	Count int `json:"count"`
}

// Sort orders page lists.
type Sort string

const (
	SortDefault  Sort = "default"
	SortDateDesc Sort = "date_desc"
	SortDateAsc  Sort = "date_asc"
)

// SortOptions lists the sort orders in display order.
func SortOptions() []Option[Sort] {
	return []Option[Sort]{
		{Value: SortDefault, Label: "Priority"},
		{Value: SortDateDesc, Label: "Published date (newest first)"},
		{Value: SortDateAsc, Label: "Published date (oldest first)"},
	}
}

// AllPagesSize is the page size used to fetch every page at once.
const AllPagesSize = 10000

// ListParams filters and paginates page lists. Zero values are omitted from
// the query string.
type ListParams struct {
	Query        string
	PageNumber   int
	PageSize     int
	Sort         Sort
	Template     string
	WithChildren bool
}

// AllPages returns the params that fetch every page in one request.
func AllPages() ListParams {
	return ListParams{PageNumber: 1, PageSize: AllPagesSize}
}

// Values encodes the params as query values.
func (p ListParams) Values() url.Values {
	values := url.Values{}
	if p.Query != "" {
		values.Set("query", p.Query)
	}
	if p.PageNumber > 0 {
		values.Set("pageNumber", strconv.Itoa(p.PageNumber))
	}
	if p.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Sort != "" && p.Sort != SortDefault {
		values.Set("sort", string(p.Sort))
	}
	if p.Template != "" {
		values.Set("filter[template]", p.Template)
	}
	if p.WithChildren {
		values.Set("filter[with-children]", "1")
	}
	return values
}

// ParseListParams reads params from query values. Unparseable numbers are
// left at zero.
func ParseListParams(values url.Values) ListParams {
	p := ListParams{
		Query:    values.Get("query"),
		Sort:     Sort(values.Get("sort")),
		Template: values.Get("filter[template]"),
	}
	p.PageNumber, _ = strconv.Atoi(values.Get("pageNumber"))
	p.PageSize, _ = strconv.Atoi(values.Get("pageSize"))
	switch values.Get("filter[with-children]") {
	case "1", "true":
		p.WithChildren = true
	}
	return p
}

// CreatePayload is the body of POST /admin/pages.
type CreatePayload struct {
	Title    string  `json:"title"`
	Status   Status  `json:"status"`
	Parent   *int64  `json:"parent"`
	Path     string  `json:"path"`
	Template *string `json:"template"`

	TemplateFields []fields.OutgoingField `json:"templateFields,omitempty"`
}

// UpdatePayload is the body of PUT /admin/pages/{id}.
type UpdatePayload struct {
	Title    string `json:"title"`
	Status   Status `json:"status"`
	Parent   *int64 `json:"parent"`
	Image    *int64 `json:"image"`
	Excerpt  string `json:"excerpt"`
	Body     string `json:"body"`
	Datetime string `json:"datetime"`
	Path     string `json:"path"`

	PageTitle               string `json:"pageTitle"`
	PageDescription         string `json:"pageDescription"`
	PageKeywords            string `json:"pageKeywords"`
	OpenGraphTitle          string `json:"openGraphTitle"`
	OpenGraphDescription    string `json:"openGraphDescription"`
	OpenGraphImage          *int64 `json:"openGraphImage"`
	HiddenFromSeoIndexation bool   `json:"hiddenFromSeoIndexation"`

	Template       *string                `json:"template"`
	TemplateFields []fields.OutgoingField `json:"templateFields"`
}

// Success is the body returned by delete and move.
type Success struct {
	Success bool `json:"success"`
}
