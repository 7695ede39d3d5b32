package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

// DateLayout is the accepted DATE format.
const DateLayout = "2006-01-02"

// DateTimeLayouts are the accepted DATETIME formats, tried in order.
var DateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Repetition actions, in the order they are offered.
const (
	actionKeep     = "Keep"
	actionEdit     = "Edit"
	actionRemove   = "Remove"
	actionMoveUp   = "Move up"
	actionMoveDown = "Move down"
)

// Editor walks a field tree and prompts for a new value per field.
type Editor struct {
	driver PromptDriver
	engine *fields.Engine
	out    io.Writer
	theme  Theme
}

// New constructs an Editor. Without WithPromptDriver it prompts through
// survey on the current terminal.
func New(options ...Option) *Editor {
	e := &Editor{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.driver == nil {
		e.driver = NewSurveyDriver(e.out)
	}
	if e.engine == nil {
		e.engine = fields.DefaultEngine()
	}
	return e
}

// Edit prompts for every field of tree and returns the edited copy. The input
// tree is left unchanged. ErrAborted is returned when the user interrupts.
func (e *Editor) Edit(ctx context.Context, tree []fields.Field) ([]fields.Field, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if e.driver == nil {
		return nil, ErrNoDriver
	}
	return e.editTree(ctx, fields.CloneTree(tree), "")
}

func (e *Editor) editTree(ctx context.Context, tree []fields.Field, prefix string) ([]fields.Field, error) {
	out := make([]fields.Field, 0, len(tree))
	for _, field := range tree {
		edited, err := e.editField(ctx, field, joinPath(prefix, field.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, edited)
	}
	return out, nil
}

func (e *Editor) editField(ctx context.Context, field fields.Field, path string) (fields.Field, error) {
	if err := ctx.Err(); err != nil {
		return field, err
	}
	label := field.Definition.DisplayLabel()

	switch field.Kind() {
	case fields.KindString:
		return e.promptText(ctx, field, path, label, nil)
	case fields.KindDate:
		return e.promptText(ctx, field, path, label+" (YYYY-MM-DD)", validateDate)
	case fields.KindDateTime:
		return e.promptText(ctx, field, path, label+" (YYYY-MM-DD HH:MM:SS)", validateDateTime)
	case fields.KindText, fields.KindHTML:
		return e.promptTextArea(ctx, field, label)
	case fields.KindImage, fields.KindFile:
		return e.promptFile(ctx, field, path, label)
	case fields.KindGallery:
		return e.promptGallery(ctx, field, path, label)
	case fields.KindRepeater:
		return e.promptRepeater(ctx, field, path, label)
	default:
		if err := e.driver.Info(ctx, fmt.Sprintf("%s: unsupported field type %q, skipped", label, field.Definition.Type)); err != nil {
			return field, err
		}
		return field, nil
	}
}

func (e *Editor) promptText(ctx context.Context, field fields.Field, path, message string, validate func(string) error) (fields.Field, error) {
	current, _ := field.Text()
	for {
		answer, err := e.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   current,
			Help:      path,
			Validator: validate,
		})
		if err != nil {
			return field, err
		}
		answer = strings.TrimSpace(answer)
		if validate != nil {
			if err := validate(answer); err != nil {
				_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
				continue
			}
		}
		return e.engine.SetValue(field, fields.TextValue(answer))
	}
}

func (e *Editor) promptTextArea(ctx context.Context, field fields.Field, message string) (fields.Field, error) {
	current, _ := field.Text()
	answer, err := e.driver.TextArea(ctx, TextAreaConfig{
		Message: message,
		Default: current,
	})
	if err != nil {
		return field, err
	}
	return e.engine.SetValue(field, fields.TextValue(answer))
}

func (e *Editor) promptFile(ctx context.Context, field fields.Field, path, label string) (fields.Field, error) {
	current, _ := field.File()
	def := ""
	if current != nil {
		def = strconv.FormatInt(current.ID, 10)
	}
	for {
		answer, err := e.driver.Input(ctx, InputConfig{
			Message:   label + " (file id, empty for none)",
			Default:   def,
			Help:      path,
			Validator: validateOptionalID,
		})
		if err != nil {
			return field, err
		}
		answer = strings.TrimSpace(answer)
		if err := validateOptionalID(answer); err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		if answer == "" {
			return e.engine.SetValue(field, fields.FileValue{})
		}
		id, _ := strconv.ParseInt(answer, 10, 64)
		if current != nil && current.ID == id {
			return field, nil
		}
		return e.engine.SetValue(field, fields.FileValue{File: &fields.File{ID: id}})
	}
}

func (e *Editor) promptGallery(ctx context.Context, field fields.Field, path, label string) (fields.Field, error) {
	current, _ := field.Gallery()
	kept := make([]fields.File, 0, len(current))

	if len(current) > 0 {
		options := make([]string, len(current))
		defaults := make([]int, len(current))
		for i, file := range current {
			options[i] = describeFile(file)
			defaults[i] = i
		}
		indices, err := e.driver.MultiSelect(ctx, SelectConfig{
			Message:  label + ": files to keep",
			Options:  options,
			Defaults: defaults,
			Help:     path,
		})
		if err != nil {
			return field, err
		}
		for _, idx := range indices {
			if idx >= 0 && idx < len(current) {
				kept = append(kept, current[idx])
			}
		}
	}

	for {
		answer, err := e.driver.Input(ctx, InputConfig{
			Message:   label + ": add file ids (comma separated)",
			Help:      path,
			Validator: validateIDList,
		})
		if err != nil {
			return field, err
		}
		ids, err := parseIDList(answer)
		if err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		for _, id := range ids {
			kept = append(kept, fields.File{ID: id})
		}
		return e.engine.SetValue(field, fields.GalleryValue(kept))
	}
}

func (e *Editor) promptRepeater(ctx context.Context, field fields.Field, path, label string) (fields.Field, error) {
	if err := e.driver.Info(ctx, e.theme.SectionPrefix+label); err != nil {
		return field, err
	}

	for i := 0; ; {
		repetitions, _ := field.Repetitions()
		if i >= len(repetitions) {
			break
		}
		options := []string{actionKeep, actionEdit, actionRemove}
		if i > 0 {
			options = append(options, actionMoveUp)
		}
		if i < len(repetitions)-1 {
			options = append(options, actionMoveDown)
		}
		choice, err := e.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("%s #%d: %s", label, i+1, summarize(repetitions[i].Fields)),
			Options: options,
			Help:    path,
		})
		if err != nil {
			return field, err
		}
		if choice < 0 || choice >= len(options) {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", path))
			continue
		}

		switch options[choice] {
		case actionKeep:
			i++
		case actionEdit:
			edited, err := e.editTree(ctx, repetitions[i].Fields, joinPath(path, strconv.Itoa(i)))
			if err != nil {
				return field, err
			}
			if field, err = fields.ReplaceRepetition(field, i, edited); err != nil {
				return field, err
			}
			i++
		case actionRemove:
			if field, err = fields.RemoveRepetition(field, i); err != nil {
				return field, err
			}
		case actionMoveUp:
			if field, err = fields.MoveRepetition(field, i, i-1); err != nil {
				return field, err
			}
			i--
		case actionMoveDown:
			if field, err = fields.MoveRepetition(field, i, i+1); err != nil {
				return field, err
			}
		}
	}

	for {
		add, err := e.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add %s entry?", label)})
		if err != nil {
			return field, err
		}
		if !add {
			return field, nil
		}
		if field, err = e.engine.AddRepetition(field); err != nil {
			return field, err
		}
		repetitions, _ := field.Repetitions()
		last := len(repetitions) - 1
		edited, err := e.editTree(ctx, repetitions[last].Fields, joinPath(path, strconv.Itoa(last)))
		if err != nil {
			return field, err
		}
		if field, err = fields.ReplaceRepetition(field, last, edited); err != nil {
			return field, err
		}
	}
}

func validateDate(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("expected YYYY-MM-DD")
	}
	return nil
}

func validateDateTime(value string) error {
	if value == "" {
		return nil
	}
	for _, layout := range DateTimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return nil
		}
	}
	return fmt.Errorf("expected YYYY-MM-DD HH:MM:SS")
}

func validateOptionalID(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("%q is not a file id", value)
	}
	return nil
}

func validateIDList(value string) error {
	_, err := parseIDList(value)
	return err
}

func parseIDList(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a file id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func describeFile(file fields.File) string {
	switch {
	case file.Name != "":
		return fmt.Sprintf("#%d %s", file.ID, file.Name)
	case file.URL != "":
		return fmt.Sprintf("#%d %s", file.ID, file.URL)
	default:
		return fmt.Sprintf("#%d", file.ID)
	}
}

// summarize renders the first text value of a repetition as its title.
func summarize(tree []fields.Field) string {
	for _, field := range tree {
		if text, ok := field.Text(); ok && strings.TrimSpace(text) != "" {
			if runes := []rune(text); len(runes) > 40 {
				text = string(runes[:40]) + "..."
			}
			return text
		}
	}
	return "(empty)"
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
