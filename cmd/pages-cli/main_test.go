package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozitag/tager-admin-pages/internal/server"
	"github.com/ozitag/tager-admin-pages/internal/store"
	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
	"github.com/ozitag/tager-admin-pages/pkg/tui"
)

const homeTemplate = `{
  "id": "home",
  "label": "Home page",
  "fields": [
    {"name": "title", "label": "Title", "type": "STRING"},
    {"name": "slides", "label": "Slides", "type": "REPEATER", "fields": [
      {"name": "heading", "label": "Heading", "type": "STRING"}
    ]}
  ]
}`

// scriptedDriver answers prompts by message and falls back to defaults.
type scriptedDriver struct {
	inputs   map[string]string
	confirms map[string]bool
	asked    []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if answer, ok := d.inputs[cfg.Message]; ok {
		return answer, nil
	}
	return cfg.Default, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	return d.confirms[cfg.Message], nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	return 0, nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg tui.SelectConfig) ([]int, error) {
	d.asked = append(d.asked, cfg.Message)
	return cfg.Defaults, nil
}

func (d *scriptedDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	return cfg.Default, nil
}

func (d *scriptedDriver) Info(context.Context, string) error {
	return nil
}

type cliHarness struct {
	baseURL string
	api     *client.Client
}

func newCLIHarness(t *testing.T) cliHarness {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	home, err := template.Parse([]byte(homeTemplate), "home.json")
	require.NoError(t, err)
	srv, err := server.New(ctx, st, template.NewCatalog(home),
		server.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	api, err := client.New(ts.URL)
	require.NoError(t, err)
	return cliHarness{baseURL: ts.URL, api: api}
}

func (h cliHarness) run(t *testing.T, driver tui.PromptDriver, args ...string) (string, string, error) {
	t.Helper()
	a := &app{
		lookup: func(string) (string, bool) { return "", false },
		prompt: driver,
	}
	cmd := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--base-url", h.baseURL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (h cliHarness) seed(t *testing.T, title, path string, parent *int64) page.Full {
	t.Helper()
	tpl := "home"
	p, err := h.api.Create(context.Background(), page.CreatePayload{
		Title: title, Status: page.StatusPublished, Path: path, Parent: parent, Template: &tpl,
	})
	require.NoError(t, err)
	return p
}

func TestPagesListAndShow(t *testing.T) {
	h := newCLIHarness(t)
	root := h.seed(t, "Home", "/", nil)
	h.seed(t, "Team", "/team", &root.ID)

	out, _, err := h.run(t, nil, "pages", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Home  /")
	assert.Contains(t, out, "-- Team  /team")
	assert.Contains(t, out, "Total: 2")

	out, _, err = h.run(t, nil, "pages", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Home [PUBLISHED]")
	assert.Contains(t, out, "Template: home")

	out, _, err = h.run(t, nil, "pages", "list", "--query", "$.data[*].title")
	require.NoError(t, err)
	assert.Equal(t, "Home\nTeam\n", out)

	out, _, err = h.run(t, nil, "pages", "count", "--template", "home")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, _, err = h.run(t, nil, "pages", "show", "abc")
	assert.Error(t, err)
}

func TestPagesDeleteConfirms(t *testing.T) {
	h := newCLIHarness(t)
	p := h.seed(t, "Home", "/", nil)

	declined := &scriptedDriver{}
	_, stderr, err := h.run(t, declined, "pages", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Page was not deleted")
	assert.Equal(t, []string{"Are you sure you want to delete page?"}, declined.asked)

	_, stderr, err = h.run(t, nil, "pages", "delete", "--yes", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Page has been successfully removed")

	_, err = h.api.Page(context.Background(), p.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestPagesMoveAndClone(t *testing.T) {
	h := newCLIHarness(t)
	h.seed(t, "First", "/first", nil)
	h.seed(t, "Second", "/second", nil)

	out, _, err := h.run(t, nil, "pages", "move", "2", "up")
	require.NoError(t, err)
	assert.Equal(t, "Page 2 moved up\n", out)

	out, _, err = h.run(t, nil, "pages", "move", "2", "up")
	require.NoError(t, err)
	assert.Equal(t, "Page 2 cannot move up\n", out)

	_, _, err = h.run(t, nil, "pages", "move", "2", "left")
	assert.Error(t, err)

	out, _, err = h.run(t, nil, "pages", "clone", "--yes", "--query", "$.title", "1")
	require.NoError(t, err)
	assert.Equal(t, "First (copy)\n", out)
}

func TestPagesEditNewPage(t *testing.T) {
	h := newCLIHarness(t)
	driver := &scriptedDriver{
		inputs: map[string]string{
			"Title": "Landing",
			"Path":  "/landing",
		},
	}

	out, _, err := h.run(t, driver, "pages", "edit", "--template", "home", "--status", "draft", "--query", "$.id")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	saved, err := h.api.Page(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Landing", saved.Title)
	assert.Equal(t, "/landing", saved.Path)
	assert.Equal(t, page.StatusDraft, saved.Status)
	assert.Equal(t, "home", saved.Template)
	require.Len(t, saved.TemplateValues, 2)
	assert.JSONEq(t, `"Landing"`, string(saved.TemplateValues[0].Value))
	assert.Contains(t, driver.asked, "Add Slides entry?")
}

func TestPagesEditExistingSkipFields(t *testing.T) {
	h := newCLIHarness(t)
	h.seed(t, "Home", "/", nil)

	_, stderr, err := h.run(t, &scriptedDriver{}, "pages", "edit", "1", "--title", "Start", "--skip-fields")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Page has been successfully saved")

	saved, err := h.api.Page(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Start", saved.Title)
	assert.Equal(t, "/", saved.Path)
}

func TestTemplatesCommands(t *testing.T) {
	h := newCLIHarness(t)

	out, _, err := h.run(t, nil, "templates", "list")
	require.NoError(t, err)
	assert.Equal(t, "home\tHome page\n", out)

	out, _, err = h.run(t, nil, "templates", "show", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "Home page (home)")
	assert.Contains(t, out, "  - heading (STRING)")

	dir := t.TempDir()
	good := filepath.Join(dir, "home.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(homeTemplate), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(`{"id": "bad", "fields": [{"name": "x", "type": "REPEATER"}]}`), 0o600))

	out, _, err = h.run(t, nil, "templates", "validate", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok\n", out)

	out, _, err = h.run(t, nil, "templates", "validate", good, bad)
	assert.ErrorIs(t, err, errInvalidTemplates)
	assert.True(t, strings.Contains(out, bad+": invalid"), out)
}
