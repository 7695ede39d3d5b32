package orchestrator

import (
	"context"

	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// API is the subset of the admin pages endpoints the orchestrator drives.
// *client.Client satisfies it.
type API interface {
	Templates(ctx context.Context) ([]template.Short, error)
	Template(ctx context.Context, id string) (template.Full, error)
	AllPages(ctx context.Context) ([]page.Short, error)
	Page(ctx context.Context, id int64) (page.Full, error)
	Create(ctx context.Context, payload page.CreatePayload) (page.Full, error)
	Update(ctx context.Context, id int64, payload page.UpdatePayload) (page.Full, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Move(ctx context.Context, id int64, direction client.Direction) (bool, error)
	Clone(ctx context.Context, id int64) (page.Full, error)
}

var _ API = (*client.Client)(nil)

// Variant classifies a notice.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantDanger  Variant = "danger"
)

// Notice is a user-facing toast.
type Notice struct {
	Variant Variant
	Title   string
	Body    string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls fn when non-nil.
func (fn NotifierFunc) Notify(n Notice) {
	if fn != nil {
		fn(n)
	}
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

// Confirm calls fn, confirming when fn is nil.
func (fn ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	if fn == nil {
		return true, nil
	}
	return fn(ctx, message)
}

func success(body string) Notice {
	return Notice{Variant: VariantSuccess, Title: "Success", Body: body}
}

func warning(body string) Notice {
	return Notice{Variant: VariantWarning, Title: "Warning", Body: body}
}

func failure(body string) Notice {
	return Notice{Variant: VariantDanger, Title: "Error", Body: body}
}
