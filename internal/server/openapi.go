package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/ozitag/tager-admin-pages/pkg/client"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// OpenAPI returns the embedded API description.
func OpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("server: load openapi: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("server: validate openapi: %w", err)
	}
	return doc, nil
}

// requestValidator rejects requests that do not match the API description.
// Routes the description does not cover, such as uploads, pass through.
type requestValidator struct {
	router routers.Router
	next   http.Handler
}

func newRequestValidator(doc *openapi3.T, next http.Handler) (*requestValidator, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("server: openapi router: %w", err)
	}
	return &requestValidator{router: router, next: next}, nil
}

func (v *requestValidator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, params, err := v.router.FindRoute(r)
	if err != nil {
		var routeErr *routers.RouteError
		if errors.As(err, &routeErr) {
			v.next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route:      route,
		Options: &openapi3filter.Options{
			MultiError: true,
		},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", requestIssues(err))
		return
	}
	v.next.ServeHTTP(w, r)
}

// requestIssues turns validation failures into per-field errors keyed by
// parameter name or body pointer.
func requestIssues(err error) map[string]client.FieldError {
	issues := map[string]client.FieldError{}
	var collect func(error)
	collect = func(err error) {
		var multi openapi3.MultiError
		if errors.As(err, &multi) {
			for _, inner := range multi {
				collect(inner)
			}
			return
		}
		var reqErr *openapi3filter.RequestError
		if errors.As(err, &reqErr) {
			key := "body"
			if reqErr.Parameter != nil {
				key = reqErr.Parameter.Name
			}
			var schemaErr *openapi3.SchemaError
			if errors.As(reqErr.Err, &schemaErr) {
				if pointer := schemaErr.JSONPointer(); len(pointer) > 0 && reqErr.Parameter == nil {
					key = strings.Join(pointer, ".")
				}
				issues[key] = client.FieldError{Code: "invalid", Message: schemaErr.Reason}
				return
			}
			issues[key] = client.FieldError{Code: "invalid", Message: reqErr.Error()}
			return
		}
		issues["request"] = client.FieldError{Code: "invalid", Message: err.Error()}
	}
	collect(err)
	return issues
}
