// Package api implements the v1 REST surface over the DAG registry.
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/dagr-org/dagr/internal/auth"
	"github.com/dagr-org/dagr/internal/frontend/middleware"
	"github.com/dagr-org/dagr/internal/registry"
)

//go:embed openapi.yaml
var openAPISpec []byte

// API holds the handler dependencies.
type API struct {
	service *registry.Service
}

// New creates the v1 API.
func New(service *registry.Service) *API {
	return &API{service: service}
}

// ConfigureRoutes mounts the v1 routes. Authentication has already run in
// the surrounding router; every request is then validated against the
// OpenAPI document before authorization and the handler execute, so
// handlers bind already-validated parameters.
func (a *API) ConfigureRoutes(r chi.Router) error {
	swagger, err := openapi3.NewLoader().LoadFromData(openAPISpec)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	// The router mounts the API under /api/v1; the document must agree.
	swagger.Servers = openapi3.Servers{&openapi3.Server{URL: "/api/v1"}}

	r.Use(oapimiddleware.OapiRequestValidatorWithOptions(swagger, &oapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler:          validationError,
		Options: openapi3filter.Options{
			// Authentication is handled by the surrounding middleware.
			AuthenticationFunc: func(_ context.Context, _ *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
	}))

	r.With(middleware.RequireAction(auth.ActionRead)).
		Get("/dags", a.listDAGs)
	r.With(middleware.RequireAction(auth.ActionRead)).
		Get("/dags/{dagID}", a.getDAG)
	r.With(middleware.RequireAction(auth.ActionRead)).
		Get("/dags/{dagID}/details", a.getDAGDetails)
	r.With(middleware.RequireAction(auth.ActionEdit)).
		Patch("/dags/{dagID}", a.patchDAG)
	r.With(middleware.RequireAction(auth.ActionDelete)).
		Delete("/dags/{dagID}", a.deleteDAG)

	return nil
}

// validationError writes the response for requests rejected by the OpenAPI
// validator, keeping the same error body shape as handleError.
func validationError(w http.ResponseWriter, message string, statusCode int) {
	code := ErrorCodeBadRequest
	switch statusCode {
	case http.StatusNotFound:
		code = ErrorCodeNotFound
	case http.StatusInternalServerError:
		code = ErrorCodeInternalError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    code,
		Message: message,
	})
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already written; nothing left to do but log.
		a.logEncodeFailure(r, err)
	}
}
