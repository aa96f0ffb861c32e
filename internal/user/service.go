package user

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/power-data-portal/internal"
	coreUser "github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/mail"
)

// RepositoryAPI is the admin view of the users table.
type RepositoryAPI interface {
	List(ctx context.Context, status string) ([]*Row, error)
	GetByID(ctx context.Context, id int64) (*Row, error)
	Update(ctx context.Context, id int64, changes Changes) error
	Delete(ctx context.Context, id int64) error
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Service handles registration acceptance and account administration.
type Service struct {
	repo   RepositoryAPI
	mailer Mailer
	logger *slog.Logger
}

// NewService builds the admin service. mailer may be nil, in which case
// approved users are not notified.
func NewService(repo RepositoryAPI, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, status string) ([]coreUser.Account, error) {
	if err := ValidateStatusFilter(status); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		s.logger.Error("failed to list users", "error", err, "status", status)
		return nil, errors.NewInternalError("Failed to list users", err)
	}
	accounts := make([]coreUser.Account, len(rows))
	for i, r := range rows {
		accounts[i] = r.Account()
	}
	return accounts, nil
}

// Update changes role and/or status. Admins cannot edit their own account
// here so the last admin cannot lock themselves out.
func (s *Service) Update(ctx context.Context, actor coreUser.Identity, id int64, dto UpdateUserDTO) (*coreUser.Account, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if actor.UserID == id {
		return nil, errors.NewValidationError("Admins cannot change their own role or status", errors.ErrCodeValidationFailed)
	}

	before, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := dto.Changes()
	if err := s.repo.Update(ctx, id, changes); err != nil {
		if errors.ErrUserNotFound.Is(err) {
			return nil, errors.ErrUserNotFound
		}
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, errors.NewInternalError("Failed to update user", err)
	}

	after, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user updated",
		"user_id", id,
		"admin", actor.Email,
		"role", after.Role,
		"status", after.Status)

	if coreUser.Status(before.Status) == coreUser.StatusPending && coreUser.Status(after.Status) == coreUser.StatusActive {
		s.notifyAccepted(ctx, after)
	}

	account := after.Account()
	return &account, nil
}

// Delete removes an account; used to decline a registration request.
func (s *Service) Delete(ctx context.Context, actor coreUser.Identity, id int64) error {
	if actor.UserID == id {
		return errors.NewValidationError("Admins cannot delete their own account", errors.ErrCodeValidationFailed)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.ErrUserNotFound.Is(err) {
			return errors.ErrUserNotFound
		}
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return errors.NewInternalError("Failed to delete user", err)
	}
	s.logger.Info("user deleted", "user_id", id, "admin", actor.Email)
	return nil
}

// AdminEmails returns the addresses of active admins.
func (s *Service) AdminEmails(ctx context.Context) ([]string, error) {
	rows, err := s.repo.List(ctx, string(coreUser.StatusActive))
	if err != nil {
		return nil, err
	}
	var emails []string
	for _, r := range rows {
		if coreUser.Role(r.Role) == coreUser.RoleAdmin {
			emails = append(emails, r.Email)
		}
	}
	return emails, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Row, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.ErrUserNotFound.Is(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewInternalError("Failed to load user", err)
	}
	return row, nil
}

func (s *Service) notifyAccepted(ctx context.Context, row *Row) {
	if s.mailer == nil {
		return
	}
	msg := mail.Message{
		To:      []string{row.Email},
		Subject: "Your account has been approved",
		Body:    fmt.Sprintf("Hello %s,\n\nAn administrator approved your registration. You can now log in.\n", row.Name),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send approval email", "error", err, "user_id", row.ID)
	}
}
