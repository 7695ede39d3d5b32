package fields_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/testsupport"
)

func TestFlatten_FileReferences(t *testing.T) {
	engine := newEngine()
	cover := fields.Definition{Name: "cover", Type: fields.KindImage}

	withFile := engine.NewField(cover, fields.FileValue{File: &fields.File{ID: 42, URL: "/cover.png"}})
	empty := engine.NewField(cover, fields.FileValue{})

	if diff := cmp.Diff(fields.OutgoingField{Name: "cover", Value: int64(42)}, engine.Flatten(withFile)); diff != "" {
		t.Fatalf("attached image mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fields.OutgoingField{Name: "cover", Value: nil}, engine.Flatten(empty)); diff != "" {
		t.Fatalf("empty image mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_AllKinds(t *testing.T) {
	engine := newEngine()
	incoming := testsupport.MustIncoming(t, `[
		{"name": "title", "value": "Title"},
		{"name": "summary", "value": "Line one\nLine two"},
		{"name": "body", "value": "<p>Body</p>"},
		{"name": "day", "value": "2024-03-01"},
		{"name": "at", "value": "2024-03-01 10:30:00"},
		{"name": "cover", "value": {"id": 3, "url": "/3.png"}},
		{"name": "brochure", "value": null},
		{"name": "photos", "value": [{"id": 5}, {"id": 6}]},
		{"name": "items", "value": [[{"name": "label", "value": "x"}]]},
		{"name": "accent", "value": "#fff"}
	]`)

	out := engine.FlattenTree(engine.Merge(allDefinitions(), incoming))

	want := []fields.OutgoingField{
		{Name: "title", Value: "Title"},
		{Name: "summary", Value: "Line one\nLine two"},
		{Name: "body", Value: "<p>Body</p>"},
		{Name: "day", Value: "2024-03-01"},
		{Name: "at", Value: "2024-03-01 10:30:00"},
		{Name: "cover", Value: int64(3)},
		{Name: "brochure", Value: nil},
		{Name: "photos", Value: []int64{5, 6}},
		{Name: "items", Value: [][]fields.OutgoingField{{{Name: "label", Value: "x"}}}},
		{Name: "accent", Value: nil},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_EmptyCollectionsEncodeAsArrays(t *testing.T) {
	engine := newEngine()
	defs := []fields.Definition{
		{Name: "photos", Type: fields.KindGallery},
		{Name: "items", Type: fields.KindRepeater},
	}

	payload, err := json.Marshal(engine.FlattenTree(engine.Merge(defs, nil)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `[{"name":"photos","value":[]},{"name":"items","value":[]}]`
	if string(payload) != want {
		t.Fatalf("expected %s, got %s", want, payload)
	}
}

func TestFlatten_EmptyTreeIsNotNil(t *testing.T) {
	out := newEngine().FlattenTree(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestFlatten_DoesNotMutateTree(t *testing.T) {
	engine := newEngine()
	incoming := testsupport.MustIncoming(t, `[
		{"name": "cover", "value": {"id": 3}},
		{"name": "photos", "value": [{"id": 5}]},
		{"name": "items", "value": [[{"name": "label", "value": "x"}], [{"name": "label", "value": "y"}]]}
	]`)
	tree := engine.Merge(allDefinitions(), incoming)
	before := fields.CloneTree(tree)

	engine.FlattenTree(tree)
	engine.FlattenTree(tree)

	if diff := cmp.Diff(before, tree); diff != "" {
		t.Fatalf("flatten mutated the tree (-before +after):\n%s", diff)
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	engine := newEngine()
	incoming := testsupport.MustIncoming(t, `[
		{"name": "title", "value": "Title"},
		{"name": "cover", "value": {"id": 3, "url": "/3.png"}},
		{"name": "photos", "value": [{"id": 5}, {"id": 6}]},
		{"name": "items", "value": [
			[{"name": "label", "value": "a"}],
			[{"name": "label", "value": "b"}]
		]}
	]`)
	first := engine.FlattenTree(engine.Merge(allDefinitions(), incoming))

	echoed, err := fields.ToIncoming(first)
	if err != nil {
		t.Fatalf("to incoming: %v", err)
	}
	second := engine.FlattenTree(engine.Merge(allDefinitions(), echoed))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestFlatten_ReorderedRepetitions(t *testing.T) {
	engine := newEngine()
	defs := []fields.Definition{{
		Name:   "items",
		Type:   fields.KindRepeater,
		Fields: []fields.Definition{{Name: "label", Type: fields.KindString}},
	}}
	incoming := testsupport.MustIncoming(t, `[{"name": "items", "value": [
		[{"name": "label", "value": "a"}],
		[{"name": "label", "value": "b"}],
		[{"name": "label", "value": "c"}]
	]}]`)
	tree := engine.Merge(defs, incoming)

	moved, err := fields.MoveRepetition(tree[0], 2, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	want := []fields.OutgoingField{{
		Name: "items",
		Value: [][]fields.OutgoingField{
			{{Name: "label", Value: "c"}},
			{{Name: "label", Value: "a"}},
			{{Name: "label", Value: "b"}},
		},
	}}
	if diff := cmp.Diff(want, engine.FlattenTree([]fields.Field{moved})); diff != "" {
		t.Fatalf("reordered flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIncoming(t *testing.T) {
	list, err := fields.ParseIncoming([]byte(`[{"name": "a", "value": 1}, "junk", {"name": "b"}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := len(list); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}

	if _, err := fields.ParseIncoming([]byte(`{"name": "a"}`)); err == nil {
		t.Fatalf("expected error for non-list payload")
	}
}
