package orchestrator

import (
	"context"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

// Transformer rewrites a field tree right before it is flattened for
// submission. Implementations must return a new tree rather than modify the
// one they receive.
type Transformer interface {
	Transform(ctx context.Context, tree []fields.Field) ([]fields.Field, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, tree []fields.Field) ([]fields.Field, error)

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, tree []fields.Field) ([]fields.Field, error) {
	if fn == nil {
		return tree, nil
	}
	return fn(ctx, tree)
}

// SanitizeHTML returns a transformer that cleans every HTML field with s.
func SanitizeHTML(s *fields.Sanitizer) Transformer {
	if s == nil {
		s = fields.NewSanitizer(nil)
	}
	return TransformerFunc(func(_ context.Context, tree []fields.Field) ([]fields.Field, error) {
		return s.Tree(tree), nil
	})
}

// Chain runs transformers in order.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, tree []fields.Field) ([]fields.Field, error) {
		var err error
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if tree, err = t.Transform(ctx, tree); err != nil {
				return nil, err
			}
		}
		return tree, nil
	})
}
