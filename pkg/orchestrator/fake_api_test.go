package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

var errTransport = errors.New("transport down")

// fakeAPI is an in-memory API. Saved template fields are echoed back as
// incoming values, the way the server stores them.
type fakeAPI struct {
	templates map[string]template.Full
	pages     map[int64]page.Full
	nextID    int64

	failSave   bool
	failDelete bool
	denyDelete bool

	created []page.CreatePayload
	updated []page.UpdatePayload
	deleted []int64
	moves   []string
}

func newFakeAPI() *fakeAPI {
	home := template.Full{
		ID:    "home",
		Label: "Home",
		Fields: []fields.Definition{
			{Name: "title", Type: fields.KindString},
			{Name: "cover", Type: fields.KindImage},
			{Name: "items", Type: fields.KindRepeater, Fields: []fields.Definition{
				{Name: "label", Type: fields.KindString},
			}},
		},
	}
	landing := template.Full{
		ID:    "landing",
		Label: "Landing",
		Fields: []fields.Definition{
			{Name: "title", Type: fields.KindString},
			{Name: "body", Type: fields.KindHTML},
		},
	}
	return &fakeAPI{
		templates: map[string]template.Full{"home": home, "landing": landing},
		pages: map[int64]page.Full{
			1: {ID: 1, Title: "Root", Status: page.StatusPublished, Path: "/"},
			2: {
				ID:       2,
				Title:    "Child",
				Status:   page.StatusDraft,
				Path:     "/child",
				Parent:   &page.Parent{ID: 1, Title: "Root"},
				Template: "home",
				TemplateValues: mustIncoming(`[
					{"name": "title", "value": "Hello"},
					{"name": "cover", "value": {"id": 42, "url": "/42.png"}},
					{"name": "items", "value": [[{"name": "label", "value": "A"}], [{"name": "label", "value": "B"}]]},
					{"name": "stale", "value": "dropped"}
				]`),
			},
		},
		nextID: 10,
	}
}

func mustIncoming(raw string) []fields.IncomingField {
	var out []fields.IncomingField
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		panic(err)
	}
	return out
}

func (f *fakeAPI) Templates(context.Context) ([]template.Short, error) {
	return []template.Short{{ID: "home", Label: "Home"}, {ID: "landing", Label: "Landing"}}, nil
}

func (f *fakeAPI) Template(_ context.Context, id string) (template.Full, error) {
	tpl, ok := f.templates[id]
	if !ok {
		return template.Full{}, fmt.Errorf("template %q: %w", id, template.ErrNotFound)
	}
	return tpl, nil
}

func (f *fakeAPI) AllPages(context.Context) ([]page.Short, error) {
	return []page.Short{
		{ID: 1, Title: "Root", Depth: 0},
		{ID: 2, Title: "Child", Depth: 1, Parent: &page.Parent{ID: 1, Title: "Root"}},
	}, nil
}

func (f *fakeAPI) Page(_ context.Context, id int64) (page.Full, error) {
	p, ok := f.pages[id]
	if !ok {
		return page.Full{}, &client.ResponseError{Status: 404, Message: "not found"}
	}
	return p, nil
}

func (f *fakeAPI) Create(_ context.Context, payload page.CreatePayload) (page.Full, error) {
	f.created = append(f.created, payload)
	if f.failSave {
		return page.Full{}, errTransport
	}
	f.nextID++
	p := page.Full{ID: f.nextID, Title: payload.Title, Status: payload.Status, Path: payload.Path}
	if payload.Template != nil {
		p.Template = *payload.Template
	}
	p.TemplateValues = echo(payload.TemplateFields)
	f.pages[p.ID] = p
	return p, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, payload page.UpdatePayload) (page.Full, error) {
	f.updated = append(f.updated, payload)
	if f.failSave {
		return page.Full{}, errTransport
	}
	p := f.pages[id]
	p.Title = payload.Title
	p.Status = payload.Status
	if payload.Template != nil {
		p.Template = *payload.Template
	}
	p.TemplateValues = echo(payload.TemplateFields)
	f.pages[id] = p
	return p, nil
}

func (f *fakeAPI) Delete(_ context.Context, id int64) (bool, error) {
	f.deleted = append(f.deleted, id)
	if f.failDelete {
		return false, errTransport
	}
	if f.denyDelete {
		return false, nil
	}
	delete(f.pages, id)
	return true, nil
}

func (f *fakeAPI) Move(_ context.Context, id int64, direction client.Direction) (bool, error) {
	f.moves = append(f.moves, fmt.Sprintf("%d:%s", id, direction))
	return direction == client.DirectionUp, nil
}

func (f *fakeAPI) Clone(_ context.Context, id int64) (page.Full, error) {
	p, ok := f.pages[id]
	if !ok {
		return page.Full{}, errTransport
	}
	f.nextID++
	p.ID = f.nextID
	p.Title += " (copy)"
	f.pages[p.ID] = p
	return p, nil
}

func echo(out []fields.OutgoingField) []fields.IncomingField {
	incoming, err := fields.ToIncoming(out)
	if err != nil {
		panic(err)
	}
	return incoming
}
