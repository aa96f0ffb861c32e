package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	requestDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/request"
	"github.com/frahmantamala/power-data-portal/internal/core/events"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	"github.com/frahmantamala/power-data-portal/internal/request"
	"gorm.io/datatypes"
)

// Outcome tells the caller what happened to a submission.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomePending   Outcome = "pending"
	OutcomeRejected  Outcome = "rejected"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts the status values the review UI sends.
func ParseDecision(raw string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "approve":
		return DecisionApproved, nil
	case "rejected", "reject":
		return DecisionRejected, nil
	}
	return "", errors.NewValidationFieldError("status", "status must be one of: approved, rejected", errors.ErrCodeValidationFailed)
}

// Result is the outcome of Submit or Decide. Record is set when a record
// was written, Request when a pending request was created or approved.
type Result struct {
	Outcome Outcome                 `json:"outcome"`
	Record  equipment.Record        `json:"record,omitempty"`
	Request *request.PendingRequest `json:"request,omitempty"`
}

// EquipmentAPI is the part of the equipment service the workflow commits through.
type EquipmentAPI interface {
	Create(ctx context.Context, actor user.Identity, d equipment.Descriptor, rec equipment.Record) (equipment.Record, error)
	CreateApproved(ctx context.Context, reviewer user.Identity, submittedBy string, d equipment.Descriptor, rec equipment.Record) (equipment.Record, error)
}

// Service routes submissions by role: admins write directly, everyone else
// goes through review.
type Service struct {
	equipment EquipmentAPI
	requests  request.RepositoryAPI
	events    events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(equip EquipmentAPI, requests request.RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		equipment: equip,
		requests:  requests,
		events:    publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates raw against the kind's schema for every caller, then
// commits it for admins or queues it for review.
func (s *Service) Submit(ctx context.Context, actor user.Identity, dataType string, raw []byte) (*Result, error) {
	d, err := equipment.Lookup(dataType)
	if err != nil {
		return nil, err
	}
	rec, err := d.Decode(raw)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		created, err := s.equipment.Create(ctx, actor, d, rec)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, events.NewRecordCommittedEvent(string(d.Kind), created.Meta().ID, actor.Email))
		return &Result{Outcome: OutcomeCommitted, Record: created}, nil
	}

	var data bytes.Buffer
	if err := json.Compact(&data, raw); err != nil {
		return nil, errors.ErrInvalidDataFormat.WithCause(err)
	}
	row := &requestDatamodel.PendingRequest{
		DataType:        string(d.Kind),
		Data:            datatypes.JSON(data.Bytes()),
		SubmittedBy:     actor.Email,
		SubmittedByName: actor.Name,
		Status:          string(request.StatusPending),
	}
	if err := s.requests.Create(ctx, row); err != nil {
		s.logger.Error("failed to queue submission", "error", err, "data_type", d.Kind, "submitted_by", actor.Email)
		return nil, errors.NewInternalError("Failed to submit request", err)
	}

	s.logger.Info("submission queued for review",
		"request_id", row.ID,
		"data_type", d.Kind,
		"submitted_by", actor.Email)
	s.publish(ctx, events.NewRequestSubmittedEvent(row.ID, row.DataType, actor.Email))
	return &Result{Outcome: OutcomePending, Request: request.FromDataModel(row)}, nil
}

// ListRequests returns requests newest first. An empty status means all.
func (s *Service) ListRequests(ctx context.Context, status string) ([]*request.PendingRequest, error) {
	st := request.Status(status)
	if st != "" && !st.Valid() {
		return nil, errors.NewValidationFieldError("status", "status must be one of: pending, approved, rejected", errors.ErrCodeValidationFailed)
	}
	rows, err := s.requests.List(ctx, st)
	if err != nil {
		s.logger.Error("failed to list requests", "error", err)
		return nil, errors.NewInternalError("Failed to list requests", err)
	}
	out := make([]*request.PendingRequest, len(rows))
	for i, row := range rows {
		out[i] = request.FromDataModel(row)
	}
	return out, nil
}

// Decide approves or rejects a pending request.
func (s *Service) Decide(ctx context.Context, reviewer user.Identity, id int64, decision Decision) (*Result, error) {
	if id <= 0 {
		return nil, errors.ErrInvalidID
	}
	row, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, s.requestError(err, "Failed to load request", id)
	}
	req := request.FromDataModel(row)
	if !req.IsPending() {
		return nil, errors.ErrRequestAlreadyProcessed
	}

	switch decision {
	case DecisionApproved:
		return s.approve(ctx, reviewer, req)
	case DecisionRejected:
		return s.reject(ctx, reviewer, req)
	}
	return nil, errors.NewValidationFieldError("status", "status must be one of: approved, rejected", errors.ErrCodeValidationFailed)
}

func (s *Service) approve(ctx context.Context, reviewer user.Identity, req *request.PendingRequest) (*Result, error) {
	d, err := equipment.Lookup(req.DataType)
	if err != nil {
		return nil, err
	}
	rec, err := d.Decode(req.Data)
	if err != nil {
		s.logger.Warn("stored request no longer validates",
			"request_id", req.ID,
			"data_type", req.DataType,
			"error", err)
		return nil, err
	}

	// claim first so two reviewers cannot both commit the same request
	at := s.now().UTC()
	if err := s.requests.MarkApproved(ctx, req.ID, reviewer.Email, at); err != nil {
		return nil, s.requestError(err, "Failed to approve request", req.ID)
	}

	created, err := s.equipment.CreateApproved(ctx, reviewer, req.SubmittedBy, d, rec)
	if err != nil {
		if reopenErr := s.requests.Reopen(ctx, req.ID); reopenErr != nil {
			s.logger.Error("failed to reopen request after commit failure",
				"request_id", req.ID,
				"error", reopenErr)
		}
		return nil, err
	}

	req.Status = request.StatusApproved
	req.ReviewedBy = &reviewer.Email
	req.ReviewedAt = &at

	s.logger.Info("request approved",
		"request_id", req.ID,
		"data_type", req.DataType,
		"record_id", created.Meta().ID,
		"reviewer", reviewer.Email)
	s.publish(ctx, events.NewRequestApprovedEvent(req.ID, req.DataType, req.SubmittedBy, reviewer.Email, created.Meta().ID))
	s.publish(ctx, events.NewRecordCommittedEvent(req.DataType, created.Meta().ID, req.SubmittedBy))
	return &Result{Outcome: OutcomeCommitted, Record: created, Request: req}, nil
}

func (s *Service) reject(ctx context.Context, reviewer user.Identity, req *request.PendingRequest) (*Result, error) {
	if err := s.requests.DeletePending(ctx, req.ID); err != nil {
		return nil, s.requestError(err, "Failed to reject request", req.ID)
	}
	req.Status = request.StatusRejected

	s.logger.Info("request rejected",
		"request_id", req.ID,
		"data_type", req.DataType,
		"reviewer", reviewer.Email)
	s.publish(ctx, events.NewRequestRejectedEvent(req.ID, req.DataType, req.SubmittedBy, reviewer.Email))
	return &Result{Outcome: OutcomeRejected, Request: req}, nil
}

// Discard removes a request whatever its status.
func (s *Service) Discard(ctx context.Context, reviewer user.Identity, id int64) error {
	if id <= 0 {
		return errors.ErrInvalidID
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		return s.requestError(err, "Failed to delete request", id)
	}
	s.logger.Info("request discarded", "request_id", id, "reviewer", reviewer.Email)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) requestError(err error, message string, id int64) error {
	if _, ok := errors.IsAppError(err); ok {
		return err
	}
	s.logger.Error(strings.ToLower(message), "error", err, "request_id", id)
	return errors.NewInternalError(message, err)
}
