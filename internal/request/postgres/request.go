package postgres

import (
	"context"
	stderrors "errors"
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	requestDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/request"
	"github.com/frahmantamala/power-data-portal/internal/request"
	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) request.RepositoryAPI {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *requestDatamodel.PendingRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*requestDatamodel.PendingRequest, error) {
	var req requestDatamodel.PendingRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List returns requests newest first, optionally restricted to one status.
func (r *RequestRepository) List(ctx context.Context, status request.Status) ([]*requestDatamodel.PendingRequest, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var reqs []*requestDatamodel.PendingRequest
	err := q.Order("created_at DESC").Order("id DESC").Find(&reqs).Error
	return reqs, err
}

// MarkApproved only touches rows that are still pending so two admins
// approving the same request cannot both succeed.
func (r *RequestRepository) MarkApproved(ctx context.Context, id int64, reviewer string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&requestDatamodel.PendingRequest{}).
		Where("id = ? AND status = ?", id, string(request.StatusPending)).
		Updates(map[string]interface{}{
			"status":      string(request.StatusApproved),
			"reviewed_by": reviewer,
			"reviewed_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return errors.ErrRequestAlreadyProcessed
	}
	return nil
}

func (r *RequestRepository) Reopen(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&requestDatamodel.PendingRequest{}).
		Where("id = ? AND status = ?", id, string(request.StatusApproved)).
		Updates(map[string]interface{}{
			"status":      string(request.StatusPending),
			"reviewed_by": nil,
			"reviewed_at": nil,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *RequestRepository) DeletePending(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(request.StatusPending)).
		Delete(&requestDatamodel.PendingRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return errors.ErrRequestAlreadyProcessed
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&requestDatamodel.PendingRequest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrRequestNotFound
	}
	return nil
}
