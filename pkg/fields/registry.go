package fields

import (
	"fmt"
	"sort"
	"sync"
)

// Handler implements one field kind: its default value, how an incoming wire
// value becomes an in-memory Field, and how a Field reduces to its outgoing
// wire form. Handlers receive the Engine so nested kinds can recurse and
// allocate identities.
type Handler interface {
	Kind() Kind
	DefaultValue() Value
	Materialize(e *Engine, def Definition, incoming *IncomingField) Field
	Flatten(e *Engine, field Field) OutgoingField
}

// Registry maps kind tokens to handlers. Lookups never fail: unknown kinds
// resolve to the fallback handler, whose value is always null.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
	fallback Handler
}

// NewRegistry constructs a registry with every built-in kind registered.
func NewRegistry() *Registry {
	reg := &Registry{
		handlers: make(map[Kind]Handler),
		fallback: defaultHandler{},
	}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces the handler for its kind. Registering a handler
// for KindDefault replaces the fallback.
func (r *Registry) Register(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("fields: handler is required")
	}
	kind := handler.Kind().Normalize()
	if kind == "" {
		return fmt.Errorf("fields: handler kind is required")
	}
	if handler.DefaultValue() == nil {
		return fmt.Errorf("fields: handler %q has no default value", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if kind == KindDefault {
		r.fallback = handler
		return nil
	}
	if r.handlers == nil {
		r.handlers = make(map[Kind]Handler)
	}
	r.handlers[kind] = handler
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(handler Handler) {
	if err := r.Register(handler); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for kind, or the fallback handler when the kind
// is not registered.
func (r *Registry) Lookup(kind Kind) Handler {
	if r == nil {
		return lookupBuiltin(kind)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handler, ok := r.handlers[kind.Normalize()]; ok {
		return handler
	}
	if r.fallback != nil {
		return r.fallback
	}
	return defaultHandler{}
}

// Has reports whether a dedicated handler is registered for kind.
func (r *Registry) Has(kind Kind) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[kind.Normalize()]
	return ok
}

// Kinds returns the registered kinds sorted alphabetically.
func (r *Registry) Kinds() []Kind {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (r *Registry) registerBuiltins() {
	for _, handler := range builtinHandlers() {
		r.MustRegister(handler)
	}
}

func builtinHandlers() []Handler {
	return []Handler{
		textHandler{kind: KindString},
		textHandler{kind: KindText},
		textHandler{kind: KindHTML},
		textHandler{kind: KindDate},
		textHandler{kind: KindDateTime},
		fileHandler{kind: KindImage},
		fileHandler{kind: KindFile},
		galleryHandler{},
		repeaterHandler{},
	}
}

// lookupBuiltin is the dispatch used by a nil registry.
func lookupBuiltin(kind Kind) Handler {
	switch kind.Normalize() {
	case KindString, KindText, KindHTML, KindDate, KindDateTime:
		return textHandler{kind: kind.Normalize()}
	case KindImage, KindFile:
		return fileHandler{kind: kind.Normalize()}
	case KindGallery:
		return galleryHandler{}
	case KindRepeater:
		return repeaterHandler{}
	default:
		return defaultHandler{}
	}
}
