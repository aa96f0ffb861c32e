package equipment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Get(ctx context.Context, d Descriptor, id int64) (Record, error)
	List(ctx context.Context, d Descriptor, filter map[string]string) ([]Record, error)
	Update(ctx context.Context, actor user.Identity, d Descriptor, id int64, patch map[string]json.RawMessage) (Record, error)
	Delete(ctx context.Context, actor user.Identity, d Descriptor, id int64) error
}

// Handler serves read, update and delete for every equipment kind. Creation
// goes through the workflow handler.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// DataTypeInfo describes a kind for GET /data-types.
type DataTypeInfo struct {
	Kind   Kind     `json:"kind"`
	Label  string   `json:"label"`
	Route  string   `json:"route"`
	Fields []string `json:"fields"`
}

func (h *Handler) DataTypes(w http.ResponseWriter, r *http.Request) {
	all := All()
	out := make([]DataTypeInfo, len(all))
	for i, d := range all {
		out[i] = DataTypeInfo{
			Kind:   d.Kind,
			Label:  d.Label,
			Route:  "/api/" + string(d.Kind),
			Fields: d.Fields(),
		}
	}
	h.WriteJSON(w, http.StatusOK, out)
}

// ForKind resolves the {dataType} URL parameter and hands the request to
// the handler built for that kind. Unknown kinds are a 400.
func ForKind(base *transport.BaseHandler, build func(Descriptor) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := Lookup(chi.URLParam(r, "dataType"))
		if err != nil {
			base.HandleServiceError(w, err)
			return
		}
		build(d)(w, r)
	}
}

// List handles GET /<kind>. Query parameters filter by attribute.
func (h *Handler) List(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := make(map[string]string)
		for k, v := range r.URL.Query() {
			if len(v) > 0 && v[0] != "" {
				filter[k] = v[0]
			}
		}

		records, err := h.Service.List(r.Context(), d, filter)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, records)
	}
}

// Get handles GET /<kind>/{id}.
func (h *Handler) Get(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.PathID(r)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		rec, err := h.Service.Get(r.Context(), d, id)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, rec)
	}
}

// Update handles PUT and PATCH /<kind>/{id}; both merge the body over the
// stored record.
func (h *Handler) Update(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			h.HandleServiceError(w, internal.ErrMissingToken)
			return
		}

		id, err := h.PathID(r)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		var patch map[string]json.RawMessage
		if err := h.DecodeJSON(r, &patch); err != nil {
			h.HandleServiceError(w, err)
			return
		}

		rec, err := h.Service.Update(r.Context(), actor, d, id, patch)
		if err != nil {
			h.Logger.Warn("update failed", "error", err, "data_type", d.Kind, "record_id", id)
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, rec)
	}
}

// Delete handles DELETE /<kind>/{id}.
func (h *Handler) Delete(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			h.HandleServiceError(w, internal.ErrMissingToken)
			return
		}

		id, err := h.PathID(r)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		if err := h.Service.Delete(r.Context(), actor, d, id); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]string{"message": d.Label + " deleted"})
	}
}
