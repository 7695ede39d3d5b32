package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
)

const defaultEntityName = "Page"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithEngine injects the field engine used to merge and flatten trees.
func WithEngine(engine *fields.Engine) Option {
	return func(o *Orchestrator) {
		o.engine = engine
	}
}

// WithNotifier injects the notifier receiving success and failure notices.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithConfirmer injects the confirmation prompt used before deleting.
func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) {
		o.confirmer = c
	}
}

// WithTransformer registers a Transformer applied to the tree on submit.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithEntityName overrides the entity name used in notices ("Page").
func WithEntityName(name string) Option {
	return func(o *Orchestrator) {
		o.entityName = name
	}
}

// Orchestrator coordinates the form pipeline against an API. It applies
// defaults (default field engine, silent notifier, auto-confirm) so callers
// can start with a single constructor call.
type Orchestrator struct {
	api         API
	engine      *fields.Engine
	notifier    Notifier
	confirmer   Confirmer
	transformer Transformer
	entityName  string

	mu       sync.Mutex
	deleting map[int64]struct{}
}

// New constructs an Orchestrator applying any provided options.
func New(api API, options ...Option) *Orchestrator {
	o := &Orchestrator{api: api}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.engine == nil {
		o.engine = fields.DefaultEngine()
	}
	if o.notifier == nil {
		o.notifier = NotifierFunc(nil)
	}
	if o.confirmer == nil {
		o.confirmer = ConfirmFunc(nil)
	}
	if o.entityName == "" {
		o.entityName = defaultEntityName
	}
	o.deleting = make(map[int64]struct{})
}

// Engine returns the field engine.
func (o *Orchestrator) Engine() *fields.Engine {
	return o.engine
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if o.api == nil {
		return errors.New("orchestrator: api is not configured")
	}
	return ctx.Err()
}

// Delete asks for confirmation and deletes the page. It reports false without
// error when the user declines. Failures are notified and returned.
func (o *Orchestrator) Delete(ctx context.Context, id int64) (bool, error) {
	if err := o.ready(ctx); err != nil {
		return false, err
	}
	ok, err := o.confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete %s?", strings.ToLower(o.entityName)))
	if err != nil {
		return false, fmt.Errorf("orchestrator: confirm delete: %w", err)
	}
	if !ok {
		return false, nil
	}

	o.mu.Lock()
	o.deleting[id] = struct{}{}
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.deleting, id)
		o.mu.Unlock()
	}()

	deleted, err := o.api.Delete(ctx, id)
	if err != nil || !deleted {
		o.notifier.Notify(failure(fmt.Sprintf("%s deletion has been failed", o.entityName)))
		if err != nil {
			return false, fmt.Errorf("orchestrator: delete %d: %w", id, err)
		}
		return false, nil
	}
	o.notifier.Notify(success(fmt.Sprintf("%s has been successfully removed", o.entityName)))
	return true, nil
}

// IsDeleting reports whether a delete request for id is in flight.
func (o *Orchestrator) IsDeleting(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.deleting[id]
	return ok
}

// Move moves a page up or down among its siblings. A page already at the
// boundary reports false without error.
func (o *Orchestrator) Move(ctx context.Context, id int64, direction client.Direction) (bool, error) {
	if err := o.ready(ctx); err != nil {
		return false, err
	}
	moved, err := o.api.Move(ctx, id, direction)
	if err != nil {
		o.notifier.Notify(failure(fmt.Sprintf("%s move has been failed", o.entityName)))
		return false, fmt.Errorf("orchestrator: move %d %s: %w", id, direction, err)
	}
	return moved, nil
}

// Clone duplicates a page after confirmation and returns the copy.
func (o *Orchestrator) Clone(ctx context.Context, id int64) (*page.Full, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	ok, err := o.confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to clone %s?", strings.ToLower(o.entityName)))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: confirm clone: %w", err)
	}
	if !ok {
		return nil, nil
	}
	clone, err := o.api.Clone(ctx, id)
	if err != nil {
		o.notifier.Notify(failure(fmt.Sprintf("%s clone has been failed", o.entityName)))
		return nil, fmt.Errorf("orchestrator: clone %d: %w", id, err)
	}
	o.notifier.Notify(success(fmt.Sprintf("%s has been successfully cloned", o.entityName)))
	return &clone, nil
}

// PageList returns a resource listing every page.
func (o *Orchestrator) PageList() *Resource[[]page.Short] {
	return NewResource(func(ctx context.Context) ([]page.Short, error) {
		if err := o.ready(ctx); err != nil {
			return nil, err
		}
		return o.api.AllPages(ctx)
	}, []page.Short{})
}
