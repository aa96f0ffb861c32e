package history

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	historyDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/history"
)

type RepositoryAPI interface {
	Create(ctx context.Context, entry *historyDatamodel.Entry) error
	List(ctx context.Context, filter Filter) ([]*historyDatamodel.Entry, error)
	Delete(ctx context.Context, id int64) error
}

// Service appends to and reads from the audit log.
type Service struct {
	repo     RepositoryAPI
	logger   *slog.Logger
	failures atomic.Int64
	now      func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Append writes an entry. Failures are logged and counted, never returned:
// the audit log must not undo a mutation that already happened.
func (s *Service) Append(ctx context.Context, entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	if err := s.repo.Create(ctx, ToDataModel(&entry)); err != nil {
		s.failures.Add(1)
		s.logger.Error("history append failed",
			"error", err,
			"action", entry.Action,
			"data_type", entry.DataType,
			"record_id", entry.RecordID,
			"admin_email", entry.AdminEmail,
			"details", entry.Details)
		return
	}
	s.logger.Debug("history appended",
		"action", entry.Action,
		"data_type", entry.DataType,
		"record_id", entry.RecordID)
}

// FailureCount is the number of appends lost since start.
func (s *Service) FailureCount() int64 {
	return s.failures.Load()
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	if filter.Action != "" {
		switch Action(filter.Action) {
		case ActionCreate, ActionUpdate, ActionDelete:
		default:
			return nil, errors.NewValidationFieldError("action", "action must be one of: create, update, delete", errors.ErrCodeValidationFailed)
		}
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		return nil, errors.NewInternalError("Failed to list history", err)
	}

	entries := make([]*Entry, len(rows))
	for i, row := range rows {
		entries[i] = FromDataModel(row)
	}
	return entries, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return err
		}
		s.logger.Error("failed to delete history entry", "error", err, "history_id", id)
		return errors.NewInternalError("Failed to delete history entry", err)
	}
	s.logger.Info("history entry deleted", "history_id", id)
	return nil
}
