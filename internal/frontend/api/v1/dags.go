package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dagr-org/dagr/internal/auth"
	"github.com/dagr-org/dagr/internal/common/logger"
	"github.com/dagr-org/dagr/internal/models"
	"github.com/dagr-org/dagr/internal/registry"
)

// dagCollectionResponse is one page of DAG records. TotalEntries is the
// match count before pagination.
type dagCollectionResponse struct {
	DAGs         []*models.DAGMeta `json:"dags"`
	TotalEntries int               `json:"total_entries"`
}

func (a *API) listDAGs(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	req, err := bindListRequest(r.URL.Query())
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	result, err := a.service.ListDAGs(r.Context(), user, req)
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	a.writeJSON(w, r, http.StatusOK, dagCollectionResponse{
		DAGs:         result.Items,
		TotalEntries: result.TotalCount,
	})
}

// bindListRequest converts query parameters into a list request. Types and
// ranges were already checked against the OpenAPI document; binding
// failures still surface as bad requests.
func bindListRequest(query url.Values) (registry.ListRequest, error) {
	req := registry.ListRequest{OnlyActive: true}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return req, bindError("limit", v)
		}
		req.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return req, bindError("offset", v)
		}
		req.Offset = offset
	}
	if v := query.Get("only_active"); v != "" {
		onlyActive, err := strconv.ParseBool(v)
		if err != nil {
			return req, bindError("only_active", v)
		}
		req.OnlyActive = onlyActive
	}
	req.IDPattern = query.Get("dag_id_pattern")
	req.Tags = splitListParam(query["tags"])

	return req, nil
}

func bindError(param, value string) error {
	return &Error{
		HTTPStatus: http.StatusBadRequest,
		Code:       ErrorCodeBadRequest,
		Message:    fmt.Sprintf("invalid %s: %s", param, value),
	}
}

func (a *API) getDAG(w http.ResponseWriter, r *http.Request) {
	dag, err := a.service.GetDAG(r.Context(), chi.URLParam(r, "dagID"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, dag)
}

func (a *API) getDAGDetails(w http.ResponseWriter, r *http.Request) {
	dag, err := a.service.GetDAGDetails(r.Context(), chi.URLParam(r, "dagID"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, dag)
}

func (a *API) patchDAG(w http.ResponseWriter, r *http.Request) {
	dagID := chi.URLParam(r, "dagID")

	patch, err := decodePatch(r.Body)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	updateMask := splitListParam(r.URL.Query()["update_mask"])

	dag, err := a.service.PatchDAG(r.Context(), dagID, patch, updateMask)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, dag)
}

func (a *API) deleteDAG(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteDAG(r.Context(), chi.URLParam(r, "dagID")); err != nil {
		a.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodePatch binds the request body into a patch document. The document
// was already validated against the OpenAPI schema (unknown fields
// rejected, body required).
func decodePatch(body io.Reader) (registry.DAGPatch, error) {
	var patch registry.DAGPatch
	if err := json.NewDecoder(body).Decode(&patch); err != nil {
		return patch, registry.NewValidationError(err.Error())
	}
	return patch, nil
}

// splitListParam flattens repeated query parameters and comma-separated
// values into a single list.
func splitListParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func (a *API) logEncodeFailure(r *http.Request, err error) {
	logger.Error(r.Context(), "failed to encode response", "err", err)
}
