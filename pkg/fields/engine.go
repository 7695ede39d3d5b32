package fields

// Option customises an Engine.
type Option func(*Engine)

// WithRegistry injects the handler registry used for kind dispatch.
func WithRegistry(registry *Registry) Option {
	return func(e *Engine) {
		e.registry = registry
	}
}

// WithIDGenerator overrides the identity generator (random UUIDs by default).
func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

// Engine reconciles template definitions with saved values and flattens
// edited trees back to wire payloads. It holds no per-tree state, so one
// Engine can serve many form sessions.
type Engine struct {
	registry *Registry
	ids      IDGenerator
}

// NewEngine constructs an Engine. Missing dependencies fall back to the
// built-in registry and the UUID generator.
func NewEngine(options ...Option) *Engine {
	e := &Engine{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.ids == nil {
		e.ids = UUIDGenerator()
	}
	return e
}

// Registry exposes the registry used for kind dispatch.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// NewID returns a fresh identity token.
func (e *Engine) NewID() string {
	return e.ids.NewID()
}

// NewField wraps def and value into a Field carrying a fresh identity.
func (e *Engine) NewField(def Definition, value Value) Field {
	return Field{
		ID:         e.NewID(),
		Definition: def,
		Value:      value,
	}
}

// Materialize produces one Field for def, seeded from incoming when it is
// present and well-shaped, and from the kind default otherwise. The returned
// value always has the variant the kind's default value has.
func (e *Engine) Materialize(def Definition, incoming *IncomingField) Field {
	handler := e.registry.Lookup(def.Type)
	field := handler.Materialize(e, def, incoming)
	if field.ID == "" {
		field.ID = e.NewID()
	}
	if fallback := handler.DefaultValue(); field.Value == nil || !sameVariant(field.Value, fallback) {
		field.Value = fallback
	}
	return field
}

// Merge builds a field tree from defs, picking each definition's saved value
// from incoming by name. Output order follows defs. Incoming entries without
// a matching definition are ignored; when a name appears twice the first
// entry wins.
func (e *Engine) Merge(defs []Definition, incoming []IncomingField) []Field {
	index := make(map[string]int, len(incoming))
	for i, field := range incoming {
		if _, seen := index[field.Name]; !seen {
			index[field.Name] = i
		}
	}

	out := make([]Field, 0, len(defs))
	for _, def := range defs {
		var match *IncomingField
		if i, ok := index[def.Name]; ok {
			match = &incoming[i]
		}
		out = append(out, e.Materialize(def, match))
	}
	return out
}

// Flatten reduces a Field to its wire representation. It reads the field
// only; the input tree is never modified.
func (e *Engine) Flatten(field Field) OutgoingField {
	return e.registry.Lookup(field.Definition.Type).Flatten(e, field)
}

// FlattenTree flattens every field in order. The result is never nil.
func (e *Engine) FlattenTree(fields []Field) []OutgoingField {
	out := make([]OutgoingField, 0, len(fields))
	for _, field := range fields {
		out = append(out, e.Flatten(field))
	}
	return out
}

var defaultEngine = NewEngine()

// DefaultEngine returns the shared Engine used by the package-level helpers.
func DefaultEngine() *Engine {
	return defaultEngine
}

// Materialize calls Materialize on the default engine.
func Materialize(def Definition, incoming *IncomingField) Field {
	return defaultEngine.Materialize(def, incoming)
}

// Merge calls Merge on the default engine.
func Merge(defs []Definition, incoming []IncomingField) []Field {
	return defaultEngine.Merge(defs, incoming)
}

// Flatten calls Flatten on the default engine.
func Flatten(field Field) OutgoingField {
	return defaultEngine.Flatten(field)
}

// FlattenTree calls FlattenTree on the default engine.
func FlattenTree(fields []Field) []OutgoingField {
	return defaultEngine.FlattenTree(fields)
}
