package orchestrator

import (
	"context"
	"errors"
	"sync"
)

// FetchStatus tracks the lifecycle of a fetched resource.
type FetchStatus string

const (
	StatusIdle    FetchStatus = "IDLE"
	StatusLoading FetchStatus = "LOADING"
	StatusSuccess FetchStatus = "SUCCESS"
	StatusFailure FetchStatus = "FAILURE"
)

// Resource holds the latest result of a fetch function. On failure the data
// resets to the initial value and the error message is kept.
type Resource[T any] struct {
	fetch   func(context.Context) (T, error)
	initial T

	mu     sync.RWMutex
	data   T
	status FetchStatus
	err    error
}

// NewResource wraps fetch. The resource starts idle, holding initial.
func NewResource[T any](fetch func(context.Context) (T, error), initial T) *Resource[T] {
	return &Resource[T]{
		fetch:   fetch,
		initial: initial,
		data:    initial,
		status:  StatusIdle,
	}
}

// Refresh runs the fetch function and records its outcome.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.status = StatusLoading
	r.mu.Unlock()

	var (
		data T
		err  error
	)
	if r.fetch == nil {
		err = errors.New("orchestrator: resource has no fetch function")
	} else {
		data, err = r.fetch(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.data = r.initial
		r.status = StatusFailure
		r.err = err
		return err
	}
	r.data = data
	r.status = StatusSuccess
	r.err = nil
	return nil
}

// Data returns the current data.
func (r *Resource[T]) Data() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data
}

// Status returns the current fetch status.
func (r *Resource[T]) Status() FetchStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Err returns the error of the last failed refresh.
func (r *Resource[T]) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}
