package workflow

import (
	"context"
	"io"
	"net/http"

	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	"github.com/frahmantamala/power-data-portal/internal/request"
	"github.com/frahmantamala/power-data-portal/internal/transport"
)

// maxSubmissionBytes bounds a single record submission.
const maxSubmissionBytes = 1 << 20

type ServiceAPI interface {
	Submit(ctx context.Context, actor user.Identity, dataType string, raw []byte) (*Result, error)
	ListRequests(ctx context.Context, status string) ([]*request.PendingRequest, error)
	Decide(ctx context.Context, reviewer user.Identity, id int64, decision Decision) (*Result, error)
	Discard(ctx context.Context, reviewer user.Identity, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// Submit handles POST /<kind>: 201 with the record for admins, 202 with the
// pending request for everyone else.
func (h *Handler) Submit(d equipment.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			h.HandleServiceError(w, internal.ErrMissingToken)
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxSubmissionBytes))
		if err != nil {
			h.HandleServiceError(w, internal.ErrInvalidDataFormat.WithMessage("Invalid request body").WithCause(err))
			return
		}

		result, err := h.Service.Submit(r.Context(), actor, string(d.Kind), raw)
		if err != nil {
			h.Logger.Warn("submission rejected", "error", err, "data_type", d.Kind, "user", actor.Email)
			h.HandleServiceError(w, err)
			return
		}

		if result.Outcome == OutcomePending {
			h.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
				"message": "Submitted for admin review",
				"request": result.Request,
			})
			return
		}
		h.WriteJSON(w, http.StatusCreated, result.Record)
	}
}

// ListRequests handles GET /pending-requests. Defaults to pending; status=all
// returns every request.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = string(request.StatusPending)
	case "all":
		status = ""
	}

	reqs, err := h.Service.ListRequests(r.Context(), status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reqs)
}

// DecisionDTO is the body of PATCH /update-request/{id}. Either key is
// accepted.
type DecisionDTO struct {
	Status   string `json:"status"`
	Decision string `json:"decision"`
}

func (d DecisionDTO) value() string {
	if d.Decision != "" {
		return d.Decision
	}
	return d.Status
}

// Decide handles PATCH /update-request/{id}.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrMissingToken)
		return
	}
	id, err := h.PathID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto DecisionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	decision, err := ParseDecision(dto.value())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Decide(r.Context(), reviewer, id, decision)
	if err != nil {
		h.Logger.Warn("decision failed", "error", err, "request_id", id, "decision", decision)
		h.HandleServiceError(w, err)
		return
	}

	message := "Request approved"
	if decision == DecisionRejected {
		message = "Request rejected"
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"request": result.Request,
		"record":  result.Record,
	})
}

// Discard handles DELETE /update-request/{id}.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrMissingToken)
		return
	}
	id, err := h.PathID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Discard(r.Context(), reviewer, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Request deleted"})
}
