package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/orchestrator"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/testsupport"
)

type noticeLog struct {
	notices []orchestrator.Notice
}

func (l *noticeLog) Notify(n orchestrator.Notice) {
	l.notices = append(l.notices, n)
}

func (l *noticeLog) variants() []orchestrator.Variant {
	out := make([]orchestrator.Variant, 0, len(l.notices))
	for _, n := range l.notices {
		out = append(out, n.Variant)
	}
	return out
}

func newOrchestrator(api *fakeAPI, opts ...orchestrator.Option) (*orchestrator.Orchestrator, *noticeLog) {
	log := &noticeLog{}
	engine := fields.NewEngine(fields.WithIDGenerator(testsupport.SequenceIDs("s")))
	base := []orchestrator.Option{orchestrator.WithEngine(engine), orchestrator.WithNotifier(log)}
	return orchestrator.New(api, append(base, opts...)...), log
}

func TestSession_OpenMergesSavedValues(t *testing.T) {
	o, _ := newOrchestrator(newFakeAPI())
	session := o.NewSession()

	if err := session.Open(context.Background(), 2); err != nil {
		t.Fatalf("open: %v", err)
	}

	if session.IsNew() || session.PageID() != "2" {
		t.Fatalf("expected existing page 2, got %q", session.PageID())
	}
	if session.Template() == nil || session.Template().ID != "home" {
		t.Fatalf("expected home template, got %+v", session.Template())
	}
	values := session.Values()
	if values.Parent == nil || values.Parent.Label != "Root" {
		t.Fatalf("expected Root parent option, got %+v", values.Parent)
	}
	if values.Status.Value != page.StatusDraft {
		t.Fatalf("expected draft status, got %s", values.Status.Value)
	}

	want := []fields.OutgoingField{
		{Name: "title", Value: "Hello"},
		{Name: "cover", Value: int64(42)},
		{Name: "items", Value: [][]fields.OutgoingField{
			{{Name: "label", Value: "A"}},
			{{Name: "label", Value: "B"}},
		}},
	}
	if diff := cmp.Diff(want, session.Outgoing()); diff != "" {
		t.Fatalf("outgoing mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_OpenNew(t *testing.T) {
	o, _ := newOrchestrator(newFakeAPI())
	session := o.NewSession()

	if err := session.OpenNew(context.Background(), "1"); err != nil {
		t.Fatalf("open new: %v", err)
	}
	if !session.IsNew() {
		t.Fatalf("expected new session")
	}
	if got := session.Values().Parent; got == nil || got.Value != 1 {
		t.Fatalf("expected parent 1 preselected, got %+v", got)
	}
	if got := session.Fields(); len(got) != 0 {
		t.Fatalf("expected empty tree, got %d fields", len(got))
	}
	if got := len(session.ParentOptions()); got != 2 {
		t.Fatalf("expected 2 parent options, got %d", got)
	}
}

func TestSession_ChangeTemplateCarriesValues(t *testing.T) {
	o, _ := newOrchestrator(newFakeAPI())
	session := o.NewSession()
	ctx := context.Background()

	if err := session.Open(ctx, 2); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := session.ChangeTemplate(ctx, "landing"); err != nil {
		t.Fatalf("change template: %v", err)
	}

	want := []fields.OutgoingField{
		{Name: "title", Value: "Hello"},
		{Name: "body", Value: ""},
	}
	if diff := cmp.Diff(want, session.Outgoing()); diff != "" {
		t.Fatalf("outgoing mismatch (-want +got):\n%s", diff)
	}
	if got := session.Values().Template; got == nil || got.Value != "landing" {
		t.Fatalf("expected landing template option, got %+v", got)
	}

	if err := session.ChangeTemplate(ctx, ""); err != nil {
		t.Fatalf("clear template: %v", err)
	}
	if session.Template() != nil || len(session.Fields()) != 0 || session.Values().Template != nil {
		t.Fatalf("expected template to be cleared")
	}

	if err := session.ChangeTemplate(ctx, "missing"); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestSession_SubmitUpdate(t *testing.T) {
	api := newFakeAPI()
	o, log := newOrchestrator(api, orchestrator.WithTransformer(orchestrator.SanitizeHTML(nil)))
	session := o.NewSession()
	ctx := context.Background()

	if err := session.Open(ctx, 2); err != nil {
		t.Fatalf("open: %v", err)
	}

	tree := session.Fields()
	tree[0].Value = fields.TextValue("Updated")
	items, err := fields.RemoveRepetition(tree[2], 0)
	if err != nil {
		t.Fatalf("remove repetition: %v", err)
	}
	tree[2] = items
	session.SetFields(tree)

	saved, err := session.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if saved.ID != 2 {
		t.Fatalf("expected page 2, got %d", saved.ID)
	}

	if len(api.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(api.updated))
	}
	want := []fields.OutgoingField{
		{Name: "title", Value: "Updated"},
		{Name: "cover", Value: int64(42)},
		{Name: "items", Value: [][]fields.OutgoingField{{{Name: "label", Value: "B"}}}},
	}
	if diff := cmp.Diff(want, api.updated[0].TemplateFields); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, session.Outgoing()); diff != "" {
		t.Fatalf("reloaded tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]orchestrator.Variant{orchestrator.VariantSuccess}, log.variants()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SubmitCreate(t *testing.T) {
	api := newFakeAPI()
	o, _ := newOrchestrator(api)
	session := o.NewSession()
	ctx := context.Background()

	if err := session.OpenNew(ctx, ""); err != nil {
		t.Fatalf("open new: %v", err)
	}
	values := session.Values()
	values.Title = "Fresh"
	values.Path = "/fresh"
	session.SetValues(values)
	if err := session.ChangeTemplate(ctx, "landing"); err != nil {
		t.Fatalf("change template: %v", err)
	}

	saved, err := session.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(api.created) != 1 {
		t.Fatalf("expected one create, got %d", len(api.created))
	}
	if got := api.created[0].Template; got == nil || *got != "landing" {
		t.Fatalf("expected landing template in payload, got %v", got)
	}
	if session.IsNew() || session.PageID() != "11" || saved.Title != "Fresh" {
		t.Fatalf("expected session to follow the created page, got %q", session.PageID())
	}
}

func TestSession_SubmitCreateThenReloadFailure(t *testing.T) {
	api := newFakeAPI()
	o, log := newOrchestrator(api)
	session := o.NewSession()
	ctx := context.Background()

	if err := session.OpenNew(ctx, ""); err != nil {
		t.Fatalf("open new: %v", err)
	}
	values := session.Values()
	values.Title = "Fresh"
	values.Path = "/fresh"
	session.SetValues(values)
	if err := session.ChangeTemplate(ctx, "home"); err != nil {
		t.Fatalf("change template: %v", err)
	}

	delete(api.templates, "home")
	saved, err := session.Submit(ctx)
	if err == nil {
		t.Fatal("expected reload error")
	}
	if saved.ID != 11 {
		t.Fatalf("expected saved page 11, got %d", saved.ID)
	}
	if session.IsNew() || session.PageID() != "11" {
		t.Fatalf("expected session to point at page 11, got %q", session.PageID())
	}
	if diff := cmp.Diff([]orchestrator.Variant{orchestrator.VariantWarning}, log.variants()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}

	api.templates["home"] = newFakeAPI().templates["home"]
	if _, err := session.Submit(ctx); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if len(api.created) != 1 || len(api.updated) != 1 {
		t.Fatalf("expected one create and one update, got %d and %d", len(api.created), len(api.updated))
	}
}

func TestSession_SubmitFailureKeepsTree(t *testing.T) {
	api := newFakeAPI()
	o, log := newOrchestrator(api)
	session := o.NewSession()
	ctx := context.Background()

	if err := session.Open(ctx, 2); err != nil {
		t.Fatalf("open: %v", err)
	}
	tree := session.Fields()
	tree[0].Value = fields.TextValue("Unsaved edit")
	session.SetFields(tree)
	before := session.Fields()

	api.failSave = true
	if _, err := session.Submit(ctx); !errors.Is(err, errTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	if diff := cmp.Diff(before, session.Fields()); diff != "" {
		t.Fatalf("tree changed after failed submit (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]orchestrator.Variant{orchestrator.VariantDanger}, log.variants()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_RequiresLoad(t *testing.T) {
	o, _ := newOrchestrator(newFakeAPI())
	session := o.NewSession()

	if _, err := session.Submit(context.Background()); !errors.Is(err, orchestrator.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := session.ChangeTemplate(context.Background(), "home"); !errors.Is(err, orchestrator.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := session.Open(context.Background(), 99); err == nil {
		t.Fatalf("expected error for missing page")
	}
}
