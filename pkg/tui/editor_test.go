package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	selectMsgs   []string
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.selectMsgs = append(s.selectMsgs, cfg.Message+" ["+strings.Join(cfg.Options, "|")+"]")
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func fixtureTree(t *testing.T, engine *fields.Engine) []fields.Field {
	t.Helper()

	defs := []fields.Definition{
		{Name: "title", Label: "Title", Type: fields.KindString},
		{Name: "day", Type: fields.KindDate},
		{Name: "body", Label: "Body", Type: fields.KindHTML},
		{Name: "cover", Label: "Cover", Type: fields.KindImage},
		{Name: "photos", Label: "Photos", Type: fields.KindGallery},
		{Name: "items", Label: "Items", Type: fields.KindRepeater, Fields: []fields.Definition{
			{Name: "label", Label: "Label", Type: fields.KindString},
		}},
		{Name: "accent", Label: "Accent", Type: "COLOR"},
	}
	incoming, err := fields.ParseIncoming([]byte(`[
		{"name": "title", "value": "Old"},
		{"name": "cover", "value": {"id": 42}},
		{"name": "photos", "value": [{"id": 1, "name": "a.png"}, {"id": 2}]},
		{"name": "items", "value": [[{"name": "label", "value": "A"}], [{"name": "label", "value": "B"}]]}
	]`))
	if err != nil {
		t.Fatalf("parse incoming: %v", err)
	}
	return engine.Merge(defs, incoming)
}

func TestEditor_EditsEveryKind(t *testing.T) {
	engine := fields.NewEngine()
	tree := fixtureTree(t, engine)
	driver := &stubDriver{
		inputs:    []string{"New title", "bad", "2024-02-03", "", "7, 8", "A2", "C"},
		selectIdx: []int{3, 2, 1},
		multiIdx:  [][]int{{1}},
		confirm:   []bool{true, false},
		textAreas: []string{"<p>x</p>"},
	}
	editor := New(WithPromptDriver(driver), WithEngine(engine))

	edited, err := editor.Edit(context.Background(), tree)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	want := []fields.OutgoingField{
		{Name: "title", Value: "New title"},
		{Name: "day", Value: "2024-02-03"},
		{Name: "body", Value: "<p>x</p>"},
		{Name: "cover", Value: nil},
		{Name: "photos", Value: []int64{2, 7, 8}},
		{Name: "items", Value: [][]fields.OutgoingField{
			{{Name: "label", Value: "A2"}},
			{{Name: "label", Value: "C"}},
		}},
		{Name: "accent", Value: nil},
	}
	if diff := cmp.Diff(want, engine.FlattenTree(edited)); diff != "" {
		t.Fatalf("edited tree mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{
		"Invalid day: expected YYYY-MM-DD",
		"Items",
		`Accent: unsupported field type "COLOR", skipped`,
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	wantSelects := []string{
		"Items #1: A [Keep|Edit|Remove|Move down]",
		"Items #1: B [Keep|Edit|Remove|Move down]",
		"Items #1: A [Keep|Edit|Remove]",
	}
	if diff := cmp.Diff(wantSelects, driver.selectMsgs); diff != "" {
		t.Fatalf("select prompts mismatch (-want +got):\n%s", diff)
	}

	if text, _ := tree[0].Text(); text != "Old" {
		t.Fatalf("input tree modified: %q", text)
	}
}

func TestEditor_KeepsUnchangedFile(t *testing.T) {
	engine := fields.NewEngine()
	def := fields.Definition{Name: "cover", Type: fields.KindImage}
	field := engine.NewField(def, fields.FileValue{File: &fields.File{ID: 42, URL: "/42.png"}})
	driver := &stubDriver{inputs: []string{"x", "42"}}

	edited, err := New(WithPromptDriver(driver)).Edit(context.Background(), []fields.Field{field})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	file, _ := edited[0].File()
	if file == nil || file.URL != "/42.png" {
		t.Fatalf("expected original file to be kept, got %+v", file)
	}
	if len(driver.infoMessages) != 1 {
		t.Fatalf("expected one invalid-input message, got %v", driver.infoMessages)
	}
}

func TestEditor_PropagatesAbort(t *testing.T) {
	engine := fields.NewEngine()
	field := engine.Materialize(fields.Definition{Name: "title", Type: fields.KindString}, nil)

	_, err := New(WithPromptDriver(abortDriver{&stubDriver{}})).Edit(context.Background(), []fields.Field{field})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

type abortDriver struct{ *stubDriver }

func (abortDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func TestSummarizeTruncatesRunes(t *testing.T) {
	engine := fields.NewEngine()
	defs := []fields.Definition{{Name: "label", Type: fields.KindString}}
	title := strings.Repeat("ж", 45)
	incoming, err := fields.ParseIncoming([]byte(`[{"name": "label", "value": "` + title + `"}]`))
	if err != nil {
		t.Fatalf("parse incoming: %v", err)
	}

	got := summarize(engine.Merge(defs, incoming))
	if want := strings.Repeat("ж", 40) + "..."; got != want {
		t.Fatalf("summarize = %q, want %q", got, want)
	}
	if short := summarize(engine.Merge(defs, nil)); short != "(empty)" {
		t.Fatalf("expected (empty), got %q", short)
	}
}

func TestValidators(t *testing.T) {
	cases := []struct {
		name  string
		fn    func(string) error
		input string
		ok    bool
	}{
		{"date ok", validateDate, "2024-01-31", true},
		{"date empty", validateDate, "", true},
		{"date bad", validateDate, "31/01/2024", false},
		{"datetime space", validateDateTime, "2024-01-31 10:00:00", true},
		{"datetime local", validateDateTime, "2024-01-31T10:00", true},
		{"datetime rfc3339", validateDateTime, "2024-01-31T10:00:00Z", true},
		{"datetime bad", validateDateTime, "tomorrow", false},
		{"id ok", validateOptionalID, "12", true},
		{"id zero", validateOptionalID, "0", false},
		{"ids ok", validateIDList, "1, 2,3", true},
		{"ids bad", validateIDList, "1,x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn(tc.input)
			if (err == nil) != tc.ok {
				t.Fatalf("validate(%q) = %v, want ok=%v", tc.input, err, tc.ok)
			}
		})
	}
}
