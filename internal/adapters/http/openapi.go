package httpadapter

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

//go:embed openapi.yaml
var openAPISpec []byte

// requestValidator rejects /api/v1 requests that do not match the embedded
// OpenAPI document before they reach a handler.
// Bodies are capped at maxBody before validation reads them.
type requestValidator struct {
	router  routers.Router
	maxBody int64
}

func newRequestValidator(maxBody int64) (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &requestValidator{router: router, maxBody: maxBody}, nil
}

func (v *requestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			status := http.StatusNotFound
			if errors.Is(err, routers.ErrMethodNotAllowed) {
				status = http.StatusMethodNotAllowed
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		if r.Body != nil && r.Body != http.NoBody {
			if v.maxBody > 0 && r.ContentLength > v.maxBody {
				writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "validate request", &http.MaxBytesError{Limit: v.maxBody}))
				return
			}
			if v.maxBody > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, v.maxBody)
			}
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "validate request", err))
			return
		}
		next.ServeHTTP(w, r)
	})
}
