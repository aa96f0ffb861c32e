package postgres

import (
	"context"
	"strings"

	errors "github.com/frahmantamala/power-data-portal/internal"
	historyDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/history"
	"github.com/frahmantamala/power-data-portal/internal/history"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) history.RepositoryAPI {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *historyDatamodel.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns entries newest first.
func (r *HistoryRepository) List(ctx context.Context, filter history.Filter) ([]*historyDatamodel.Entry, error) {
	q := r.db.WithContext(ctx).Model(&historyDatamodel.Entry{})
	if filter.Actor != "" {
		like := likePattern(filter.Actor)
		q = q.Where("(LOWER(admin_email) LIKE ? OR LOWER(admin_name) LIKE ?)", like, like)
	}
	if filter.Action != "" {
		q = q.Where("LOWER(action) = ?", strings.ToLower(filter.Action))
	}
	if filter.DataType != "" {
		q = q.Where("LOWER(data_type) LIKE ?", likePattern(filter.DataType))
	}

	var entries []*historyDatamodel.Entry
	err := q.Order("timestamp DESC").Order("id DESC").Find(&entries).Error
	return entries, err
}

func (r *HistoryRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&historyDatamodel.Entry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrHistoryNotFound
	}
	return nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
