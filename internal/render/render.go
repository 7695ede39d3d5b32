// Package render prints pages and templates as plain text using pongo2
// templates. The built-in templates can be overridden from a directory.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

//go:embed templates/*.tpl
var builtin embed.FS

const extension = ".tpl"

// Option configures an Engine.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
}

// WithBaseDir loads templates from dir before falling back to the built-in
// ones.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files before falling back to the built-in
// ones.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// Engine renders named templates.
type Engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New builds an engine.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("render: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: builtin templates: %w", err)
	}
	loaders = append(loaders, pongo2.NewFSLoader(sub))

	registerFilters()
	return &Engine{
		set:       pongo2.NewSet("pages", loaders...),
		templates: make(map[string]*pongo2.Template),
	}, nil
}

// Page writes a page summary.
func (e *Engine) Page(w io.Writer, p page.Full) error {
	return e.Render(w, "page", map[string]any{"page": p})
}

// Pages writes one line per page, indented by depth. A positive total is
// printed as a footer.
func (e *Engine) Pages(w io.Writer, pages []page.Short, total int) error {
	if pages == nil {
		pages = []page.Short{}
	}
	return e.Render(w, "pages", map[string]any{"pages": pages, "total": total})
}

// Template writes a template with its field tree.
func (e *Engine) Template(w io.Writer, tpl template.Full) error {
	return e.Render(w, "template", map[string]any{"template": tpl})
}

// Render executes the named template with data.
func (e *Engine) Render(w io.Writer, name string, data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("render: engine is nil")
	}
	if !strings.HasSuffix(name, extension) {
		name += extension
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return err
	}
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("render: convert data: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return fmt.Errorf("render: execute %q: %w", name, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("render: load %q: %w", name, err)
	}
	e.templates[name] = tmpl
	return tmpl, nil
}

// toContext converts data to JSON shapes so templates address fields by
// their wire names.
func toContext(data map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(data))
	for key, value := range data {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
		out[key] = wholeNumbers(decoded)
	}
	return out, nil
}

// wholeNumbers turns integral JSON numbers back into integers so they print
// without a fractional part.
func wholeNumbers(value any) any {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	case map[string]any:
		for key, item := range v {
			v[key] = wholeNumbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = wholeNumbers(item)
		}
		return v
	default:
		return v
	}
}
