package request

import (
	"context"
	"encoding/json"
	"time"

	requestDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/request"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// PendingRequest is a non-admin submission awaiting review. Data holds the
// payload exactly as submitted.
type PendingRequest struct {
	ID              int64           `json:"id"`
	DataType        string          `json:"dataType"`
	Data            json.RawMessage `json:"data"`
	SubmittedBy     string          `json:"submittedBy"`
	SubmittedByName string          `json:"submittedByName"`
	Status          Status          `json:"status"`
	ReviewedBy      *string         `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (p *PendingRequest) IsPending() bool {
	return p.Status == StatusPending
}

type RepositoryAPI interface {
	Create(ctx context.Context, req *requestDatamodel.PendingRequest) error
	GetByID(ctx context.Context, id int64) (*requestDatamodel.PendingRequest, error)
	List(ctx context.Context, status Status) ([]*requestDatamodel.PendingRequest, error)
	// MarkApproved flips a pending request to approved. It fails with
	// ErrRequestAlreadyProcessed when the request is no longer pending.
	MarkApproved(ctx context.Context, id int64, reviewer string, at time.Time) error
	// Reopen puts an approved request back to pending.
	Reopen(ctx context.Context, id int64) error
	// DeletePending removes a request only while it is pending.
	DeletePending(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

func ToDataModel(p *PendingRequest) *requestDatamodel.PendingRequest {
	return &requestDatamodel.PendingRequest{
		ID:              p.ID,
		DataType:        p.DataType,
		Data:            datatypes.JSON(p.Data),
		SubmittedBy:     p.SubmittedBy,
		SubmittedByName: p.SubmittedByName,
		Status:          string(p.Status),
		ReviewedBy:      p.ReviewedBy,
		ReviewedAt:      p.ReviewedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromDataModel(dm *requestDatamodel.PendingRequest) *PendingRequest {
	return &PendingRequest{
		ID:              dm.ID,
		DataType:        dm.DataType,
		Data:            json.RawMessage(dm.Data),
		SubmittedBy:     dm.SubmittedBy,
		SubmittedByName: dm.SubmittedByName,
		Status:          Status(dm.Status),
		ReviewedBy:      dm.ReviewedBy,
		ReviewedAt:      dm.ReviewedAt,
		CreatedAt:       dm.CreatedAt,
		UpdatedAt:       dm.UpdatedAt,
	}
}
