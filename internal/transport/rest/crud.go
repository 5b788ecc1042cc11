package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/query"
)

const maxBodyBytes = 1 << 20

// crudService defines the operations CRUDHandler exposes.
type crudService interface {
	Save(ctx context.Context, key string, raw []byte) (any, error)
	Delete(ctx context.Context, key, rawID string) error
	GetByID(ctx context.Context, key, rawID string) (any, error)
	GetAll(ctx context.Context, key string) ([]any, error)
	GetAllMultiselect(ctx context.Context, key string) ([]entity.MultiselectOption, error)
	ToggleActive(ctx context.Context, key, rawID string) (bool, error)
	Search(ctx context.Context, key string, params map[string]string) (query.Result[any], error)
	Projection(ctx context.Context, key, name string, params []byte) (any, error)
	Autocomplete(ctx context.Context, key, term string) ([]entity.AutocompleteOption, error)
	AutocompleteActive(ctx context.Context, key, term string) ([]entity.AutocompleteOption, error)
	AutocompleteByIDs(ctx context.Context, key string, rawIDs []string) ([]entity.AutocompleteOption, error)
	Types(name string) ([]entity.SelectOption, error)
	TypesMultiselect(name string) ([]entity.MultiselectOption, error)
}

// CRUDHandler serves the generic entity endpoints.
type CRUDHandler struct {
	svc crudService
	log *slog.Logger
}

// NewCRUDHandler creates a CRUDHandler.
func NewCRUDHandler(svc crudService, logger *slog.Logger) *CRUDHandler {
	return &CRUDHandler{svc: svc, log: logger.With("handler", "crud")}
}

// Routes mounts the handler. Static segments win over {id} in chi, so
// /{key}/all and friends never reach GetByID.
func (h *CRUDHandler) Routes(r chi.Router) {
	r.Route("/types/{name}", func(r chi.Router) {
		r.Get("/", h.Types)
		r.Get("/multiselect", h.TypesMultiselect)
	})
	r.Route("/{key}", func(r chi.Router) {
		r.Get("/", h.Search)
		r.Post("/", h.Save)
		r.Get("/all", h.GetAll)
		r.Get("/multiselect", h.Multiselect)
		r.Get("/autocomplete", h.Autocomplete)
		r.Get("/autocomplete/active", h.AutocompleteActive)
		r.Get("/autocomplete/ids", h.AutocompleteByIDs)
		r.Get("/projection/{projection}", h.Projection)
		r.Get("/{id}", h.GetByID)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/toggle-active", h.ToggleActive)
	})
}

type saveResponse struct {
	ID any `json:"id"`
}

type toggleResponse struct {
	Active bool `json:"active"`
}

// Search handles GET /{key}. Repeated query parameters are joined with ",".
func (h *CRUDHandler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Search(r.Context(), chi.URLParam(r, "key"), flattenQuery(r))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Save handles POST /{key}. The body is the entity form.
func (h *CRUDHandler) Save(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body")
		return
	}

	id, err := h.svc.Save(r.Context(), chi.URLParam(r, "key"), body)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{ID: id})
}

// GetByID handles GET /{key}/{id}.
func (h *CRUDHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Delete handles DELETE /{key}/{id}.
func (h *CRUDHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleActive handles POST /{key}/{id}/toggle-active.
func (h *CRUDHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.svc.ToggleActive(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Active: active})
}

// GetAll handles GET /{key}/all.
func (h *CRUDHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.GetAll(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// Multiselect handles GET /{key}/multiselect.
func (h *CRUDHandler) Multiselect(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.GetAllMultiselect(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// Autocomplete handles GET /{key}/autocomplete?q=.
func (h *CRUDHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Autocomplete(r.Context(), chi.URLParam(r, "key"), r.URL.Query().Get("q"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// AutocompleteActive handles GET /{key}/autocomplete/active?q=.
func (h *CRUDHandler) AutocompleteActive(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.AutocompleteActive(r.Context(), chi.URLParam(r, "key"), r.URL.Query().Get("q"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// AutocompleteByIDs handles GET /{key}/autocomplete/ids. Ids come as a
// comma separated list, repeated parameters, or both.
func (h *CRUDHandler) AutocompleteByIDs(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, v := range r.URL.Query()["ids"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	opts, err := h.svc.AutocompleteByIDs(r.Context(), chi.URLParam(r, "key"), ids)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// Projection handles GET /{key}/projection/{projection}. Parameters are the
// JSON body when one is sent, the query string otherwise.
func (h *CRUDHandler) Projection(w http.ResponseWriter, r *http.Request) {
	params, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(params) == 0 && r.URL.RawQuery != "" {
		params, err = json.Marshal(flattenQuery(r))
		if err != nil {
			handleError(h.log, w, r, err)
			return
		}
	}

	out, err := h.svc.Projection(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "projection"), params)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Types handles GET /types/{name}.
func (h *CRUDHandler) Types(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Types(chi.URLParam(r, "name"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// TypesMultiselect handles GET /types/{name}/multiselect.
func (h *CRUDHandler) TypesMultiselect(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.TypesMultiselect(chi.URLParam(r, "name"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func flattenQuery(r *http.Request) map[string]string {
	q := r.URL.Query()
	params := make(map[string]string, len(q))
	for k, vs := range q {
		params[k] = strings.Join(vs, ",")
	}
	return params
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
