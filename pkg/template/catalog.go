package template

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a template id is not in the catalog.
var ErrNotFound = errors.New("template: not found")

// LoadOption customises LoadFS.
type LoadOption func(*loadConfig)

type loadConfig struct {
	validator *Validator
}

// WithValidator validates every document before it is added. Documents with
// error-severity issues abort the load.
func WithValidator(v *Validator) LoadOption {
	return func(cfg *loadConfig) {
		cfg.validator = v
	}
}

// Catalog holds templates keyed by id.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]Full
}

// NewCatalog returns a catalog seeded with templates. Later duplicates
// replace earlier ones.
func NewCatalog(templates ...Full) *Catalog {
	c := &Catalog{templates: make(map[string]Full, len(templates))}
	for _, tpl := range templates {
		c.templates[tpl.ID] = tpl
	}
	return c
}

// LoadFS walks fsys and parses every .json, .yaml and .yml file as a
// template document. A nil fsys yields an empty catalog. Duplicate ids are
// errors.
func LoadFS(fsys fs.FS, opts ...LoadOption) (*Catalog, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	catalog := NewCatalog()
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("template: read %s: %w", path, err)
		}

		if cfg.validator != nil {
			result := cfg.validator.Validate(data)
			if !result.Valid {
				return &InvalidError{Source: path, Issues: result.Errors()}
			}
		}

		tpl, err := Parse(data, path)
		if err != nil {
			return err
		}
		if existing, exists := catalog.templates[tpl.ID]; exists {
			return fmt.Errorf("template: duplicate template %q (files %s and %s)", tpl.ID, existing.Source, path)
		}
		catalog.templates[tpl.ID] = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Put adds or replaces a template.
func (c *Catalog) Put(tpl Full) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.templates == nil {
		c.templates = make(map[string]Full)
	}
	c.templates[tpl.ID] = tpl
}

// Get returns the template with id.
func (c *Catalog) Get(id string) (Full, error) {
	if c == nil {
		return Full{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	tpl, ok := c.templates[id]
	if !ok {
		return Full{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return tpl, nil
}

// List returns the short form of every template sorted by id.
func (c *Catalog) List() []Short {
	if c == nil {
		return []Short{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Short, 0, len(c.templates))
	for _, tpl := range c.templates {
		out = append(out, tpl.Short())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports how many templates the catalog holds.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
