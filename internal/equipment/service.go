package equipment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	errors "github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/history"
)

type RepositoryAPI interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, d Descriptor, id int64) (Record, error)
	List(ctx context.Context, d Descriptor) ([]Record, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, d Descriptor, id int64) error
}

type HistoryAPI interface {
	Append(ctx context.Context, entry history.Entry)
}

type Service struct {
	repo    RepositoryAPI
	history HistoryAPI
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, hist HistoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		history: hist,
		logger:  logger,
	}
}

// Create stores an already decoded record on behalf of actor and appends a
// create entry to the audit log.
func (s *Service) Create(ctx context.Context, actor user.Identity, d Descriptor, rec Record) (Record, error) {
	return s.create(ctx, actor, actor.Email, d, rec, fmt.Sprintf("Created %s", d.Label))
}

// CreateApproved stores a record that a reviewer approved from someone
// else's submission. The record keeps the submitter as its creator; the
// audit entry names the reviewer.
func (s *Service) CreateApproved(ctx context.Context, reviewer user.Identity, submittedBy string, d Descriptor, rec Record) (Record, error) {
	return s.create(ctx, reviewer, submittedBy, d, rec, fmt.Sprintf("Approved %s submitted by %s", d.Label, submittedBy))
}

func (s *Service) create(ctx context.Context, actor user.Identity, createdBy string, d Descriptor, rec Record, action string) (Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	meta := rec.Meta()
	meta.ID = 0
	meta.CreatedBy = createdBy

	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to create record", "error", err, "data_type", d.Kind)
		return nil, errors.NewInternalError("Failed to create record", err)
	}

	s.history.Append(ctx, history.Entry{
		Action:     history.ActionCreate,
		DataType:   string(d.Kind),
		RecordID:   meta.ID,
		AdminEmail: actor.Email,
		AdminName:  actor.Name,
		Details:    fmt.Sprintf("%s: %s", action, Summary(rec)),
	})

	s.logger.Info("record created",
		"data_type", d.Kind,
		"record_id", meta.ID,
		"created_by", createdBy,
		"admin", actor.Email)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, d Descriptor, id int64) (Record, error) {
	if id <= 0 {
		return nil, errors.ErrInvalidID
	}
	rec, err := s.repo.GetByID(ctx, d, id)
	if err != nil {
		return nil, s.repoError(err, "Failed to load record", d, id)
	}
	return rec, nil
}

// List returns every record of the kind, optionally narrowed by attribute
// filters. An empty result is reported as not found.
func (s *Service) List(ctx context.Context, d Descriptor, filter map[string]string) ([]Record, error) {
	if err := checkFilter(d, filter); err != nil {
		return nil, err
	}

	all, err := s.repo.List(ctx, d)
	if err != nil {
		s.logger.Error("failed to list records", "error", err, "data_type", d.Kind)
		return nil, errors.NewInternalError("Failed to list records", err)
	}

	records := make([]Record, 0, len(all))
	for _, rec := range all {
		if Matches(rec, filter) {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, errors.ErrRecordNotFound.WithMessage(fmt.Sprintf("No %s found", d.Plural))
	}
	return records, nil
}

// Update merges patch over the stored record. Concurrent updates are last
// write wins.
func (s *Service) Update(ctx context.Context, actor user.Identity, d Descriptor, id int64, patch map[string]json.RawMessage) (Record, error) {
	current, err := s.Get(ctx, d, id)
	if err != nil {
		return nil, err
	}

	next, changes, err := d.Merge(current, patch)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return current, nil
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return nil, s.repoError(err, "Failed to update record", d, id)
	}

	s.history.Append(ctx, history.Entry{
		Action:     history.ActionUpdate,
		DataType:   string(d.Kind),
		RecordID:   id,
		AdminEmail: actor.Email,
		AdminName:  actor.Name,
		Details:    FormatChanges(changes),
	})

	s.logger.Info("record updated",
		"data_type", d.Kind,
		"record_id", id,
		"changed_fields", len(changes),
		"updated_by", actor.Email)
	return next, nil
}

func (s *Service) Delete(ctx context.Context, actor user.Identity, d Descriptor, id int64) error {
	current, err := s.Get(ctx, d, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, d, id); err != nil {
		return s.repoError(err, "Failed to delete record", d, id)
	}

	s.history.Append(ctx, history.Entry{
		Action:     history.ActionDelete,
		DataType:   string(d.Kind),
		RecordID:   id,
		AdminEmail: actor.Email,
		AdminName:  actor.Name,
		Details:    fmt.Sprintf("Deleted %s: %s", d.Label, Summary(current)),
	})

	s.logger.Info("record deleted", "data_type", d.Kind, "record_id", id, "deleted_by", actor.Email)
	return nil
}

func (s *Service) repoError(err error, message string, d Descriptor, id int64) error {
	if _, ok := errors.IsAppError(err); ok {
		return err
	}
	s.logger.Error(strings.ToLower(message), "error", err, "data_type", d.Kind, "record_id", id)
	return errors.NewInternalError(message, err)
}

func checkFilter(d Descriptor, filter map[string]string) error {
	if len(filter) == 0 {
		return nil
	}
	known := make(map[string]bool)
	for _, f := range d.Fields() {
		known[f] = true
	}

	var unknown []string
	for k := range filter {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	details := make([]errors.ValidationError, len(unknown))
	for i, k := range unknown {
		details[i] = errors.ValidationError{
			Field:   k,
			Message: fmt.Sprintf("%s is not an attribute of %s", k, d.Kind),
			Code:    string(errors.ErrCodeValidationFailed),
		}
	}
	return errors.NewValidationError("Unknown filter attribute", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: details})
}
