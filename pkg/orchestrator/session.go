package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// ErrNotLoaded is returned by Session methods that need Open or OpenNew to
// have succeeded first.
var ErrNotLoaded = errors.New("orchestrator: session is not loaded")

// Session is the state of one page form: the fixed attributes, the selected
// template and the editable field tree built from it. A session owns its
// tree; callers replace it through SetFields rather than sharing it.
type Session struct {
	o *Orchestrator

	loaded        bool
	page          *page.Full
	templates     []template.Short
	parentOptions []page.Option[int64]
	template      *template.Full
	values        page.FormValues
	tree          []fields.Field
}

// NewSession returns an empty session bound to o.
func (o *Orchestrator) NewSession() *Session {
	return &Session{o: o}
}

// Open loads an existing page: the page itself, the template list and every
// page (for parent choices), then the page's template, whose definitions are
// merged with the page's saved template values.
func (s *Session) Open(ctx context.Context, pageID int64) error {
	if err := s.o.ready(ctx); err != nil {
		return err
	}
	p, err := s.o.api.Page(ctx, pageID)
	if err != nil {
		s.o.notifier.Notify(failure(fmt.Sprintf("%s loading has been failed", s.o.entityName)))
		return fmt.Errorf("orchestrator: fetch page %d: %w", pageID, err)
	}
	if err := s.loadLists(ctx); err != nil {
		return err
	}
	return s.reset(ctx, &p)
}

// OpenNew prepares a blank form. parentID preselects the parent when it
// names a listed page.
func (s *Session) OpenNew(ctx context.Context, parentID string) error {
	if err := s.o.ready(ctx); err != nil {
		return err
	}
	if err := s.loadLists(ctx); err != nil {
		return err
	}
	s.page = nil
	s.template = nil
	s.tree = []fields.Field{}
	s.values = page.FormValuesFromPage(nil, s.templates, s.parentOptions, parentID)
	s.loaded = true
	return nil
}

func (s *Session) loadLists(ctx context.Context) error {
	templates, err := s.o.api.Templates(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: fetch templates: %w", err)
	}
	pages, err := s.o.api.AllPages(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: fetch pages: %w", err)
	}
	s.templates = templates
	s.parentOptions = page.ParentOptions(pages)
	return nil
}

// reset rebuilds the session from p with a fresh tree.
func (s *Session) reset(ctx context.Context, p *page.Full) error {
	var (
		tpl  *template.Full
		tree = []fields.Field{}
	)
	if p.Template != "" {
		full, err := s.o.api.Template(ctx, p.Template)
		if err != nil {
			return fmt.Errorf("orchestrator: fetch template %q: %w", p.Template, err)
		}
		tpl = &full
		tree = s.o.engine.Merge(full.Fields, p.TemplateValues)
	}
	s.page = p
	s.template = tpl
	s.tree = tree
	s.values = page.FormValuesFromPage(p, s.templates, s.parentOptions, "")
	s.loaded = true
	return nil
}

// ChangeTemplate switches the template. The current tree is flattened and
// merged against the new definitions, so values of fields that share a name
// and kind survive. An empty id clears the template and the tree.
func (s *Session) ChangeTemplate(ctx context.Context, id string) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if err := s.o.ready(ctx); err != nil {
		return err
	}
	if id == "" {
		s.template = nil
		s.tree = []fields.Field{}
		s.values.Template = nil
		return nil
	}

	full, err := s.o.api.Template(ctx, id)
	if err != nil {
		return fmt.Errorf("orchestrator: fetch template %q: %w", id, err)
	}
	carried, err := fields.ToIncoming(s.o.engine.FlattenTree(s.tree))
	if err != nil {
		return fmt.Errorf("orchestrator: carry values: %w", err)
	}
	s.template = &full
	s.tree = s.o.engine.Merge(full.Fields, carried)
	s.values.Template = &page.Option[string]{Value: full.ID, Label: full.Label}
	return nil
}

// Submit flattens the tree once and creates or updates the page. On failure
// the tree and values are left as they were and the notifier is told. On
// success the session reloads from the saved page; when only the reload fails
// the session still points at the saved page.
func (s *Session) Submit(ctx context.Context) (page.Full, error) {
	if !s.loaded {
		return page.Full{}, ErrNotLoaded
	}
	if err := s.o.ready(ctx); err != nil {
		return page.Full{}, err
	}

	tree := s.tree
	if s.o.transformer != nil {
		transformed, err := s.o.transformer.Transform(ctx, fields.CloneTree(tree))
		if err != nil {
			return page.Full{}, fmt.Errorf("orchestrator: transform fields: %w", err)
		}
		tree = transformed
	}
	outgoing := s.o.engine.FlattenTree(tree)

	var (
		saved page.Full
		err   error
	)
	if s.IsNew() {
		payload := page.CreationPayload(s.values)
		payload.TemplateFields = outgoing
		saved, err = s.o.api.Create(ctx, payload)
	} else {
		saved, err = s.o.api.Update(ctx, s.page.ID, page.UpdatePayloadFrom(s.values, outgoing))
	}
	if err != nil {
		s.o.notifier.Notify(failure(fmt.Sprintf("%s save has been failed", s.o.entityName)))
		return page.Full{}, fmt.Errorf("orchestrator: save page: %w", err)
	}

	// A later Submit must update this page even when the reload fails.
	stored := saved
	s.page = &stored
	if err := s.reset(ctx, &saved); err != nil {
		s.o.notifier.Notify(warning(fmt.Sprintf("%s has been saved, but reloading has been failed", s.o.entityName)))
		return saved, err
	}
	s.o.notifier.Notify(success(fmt.Sprintf("%s has been successfully saved", s.o.entityName)))
	return saved, nil
}

// IsNew reports whether the session edits a page that does not exist yet.
func (s *Session) IsNew() bool {
	return s.page == nil
}

// PageID returns the id of the edited page as a string, or "" for new pages.
func (s *Session) PageID() string {
	if s.page == nil {
		return ""
	}
	return strconv.FormatInt(s.page.ID, 10)
}

// Page returns the loaded page, nil for new pages.
func (s *Session) Page() *page.Full {
	return s.page
}

// Template returns the selected template, nil when none is selected.
func (s *Session) Template() *template.Full {
	return s.template
}

// Templates returns the template choices.
func (s *Session) Templates() []template.Short {
	return s.templates
}

// ParentOptions returns the parent choices.
func (s *Session) ParentOptions() []page.Option[int64] {
	return s.parentOptions
}

// Values returns the fixed form values.
func (s *Session) Values() page.FormValues {
	return s.values
}

// SetValues replaces the fixed form values.
func (s *Session) SetValues(values page.FormValues) {
	s.values = values
}

// Fields returns a copy of the field tree.
func (s *Session) Fields() []fields.Field {
	return fields.CloneTree(s.tree)
}

// SetFields replaces the field tree.
func (s *Session) SetFields(tree []fields.Field) {
	if tree == nil {
		tree = []fields.Field{}
	}
	s.tree = tree
}

// Outgoing returns the flattened tree without submitting it.
func (s *Session) Outgoing() []fields.OutgoingField {
	return s.o.engine.FlattenTree(s.tree)
}
