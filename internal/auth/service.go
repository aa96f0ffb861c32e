package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	userDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/mail"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	BCryptCost    int
	ResetTokenTTL time.Duration
	// ResetBaseURL is the frontend origin; links are <base>/reset-password/<token>.
	ResetBaseURL string
}

// Service is the credential store and session issuer.
type Service struct {
	repo   RepositoryAPI
	tokens TokenGeneratorAPI
	mailer Mailer
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, mailer Mailer, opts Options, logger *slog.Logger) *Service {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	if opts.ResetTokenTTL == 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BCryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register stores a new account awaiting admin approval.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*user.Account, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("Failed to register", err)
	}

	row := &userDatamodel.User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         string(user.RoleUser),
		Status:       string(user.StatusPending),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.ErrDuplicateEmail.Is(err) {
			return nil, errors.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, errors.NewInternalError("Failed to register", err)
	}

	s.logger.Info("registration requested", "user_id", row.ID, "email", row.Email)
	account := ToAccount(row)
	return &account, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.ErrUserNotFound.Is(err) {
			return nil, errors.ErrInvalidCredentials
		}
		s.logger.Error("failed to load user for login", "error", err)
		return nil, errors.NewInternalError("Failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected: wrong password", "user_id", row.ID)
		return nil, errors.ErrInvalidCredentials
	}

	switch user.Status(row.Status) {
	case user.StatusPending:
		return nil, errors.ErrAccountPending
	case user.StatusDisabled:
		return nil, errors.ErrAccountDisabled
	}

	account := ToAccount(row)
	token, expiresAt, err := s.tokens.Issue(account.Identity())
	if err != nil {
		return nil, errors.NewInternalError("Failed to issue token", err)
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, row.ID, now); err != nil {
		s.logger.Warn("failed to record last login", "error", err, "user_id", row.ID)
	} else {
		account.LastLogin = &now
	}

	s.logger.Info("user logged in", "user_id", row.ID, "role", row.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: account}, nil
}

// Identify turns a bearer token into the caller's identity. The account is
// reloaded so role changes and disabling take effect immediately.
func (s *Service) Identify(ctx context.Context, token string) (user.Identity, error) {
	if token == "" {
		return user.Identity{}, errors.ErrMissingToken
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return user.Identity{}, err
	}

	row, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.ErrUserNotFound.Is(err) {
			return user.Identity{}, errors.ErrInvalidToken
		}
		return user.Identity{}, errors.NewInternalError("Failed to load user", err)
	}
	if user.Status(row.Status) != user.StatusActive {
		return user.Identity{}, errors.ErrInvalidToken.WithMessage("Account is not active")
	}
	return ToAccount(row).Identity(), nil
}

func (s *Service) Profile(ctx context.Context, identity user.Identity) (*user.Account, error) {
	row, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("Failed to load profile", err)
	}
	account := ToAccount(row)
	return &account, nil
}

func (s *Service) ChangePassword(ctx context.Context, identity user.Identity, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	row, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return err
		}
		return errors.NewInternalError("Failed to change password", err)
	}

	if dto.CurrentPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
			return errors.NewValidationFieldError("currentPassword", "current password is incorrect", errors.ErrCodeInvalidCredentials)
		}
	}

	hash, err := s.HashPassword(dto.NewPassword)
	if err != nil {
		return errors.NewInternalError("Failed to change password", err)
	}
	if err := s.repo.UpdatePassword(ctx, row.ID, hash); err != nil {
		return errors.NewInternalError("Failed to change password", err)
	}

	s.logger.Info("password changed", "user_id", row.ID)
	return nil
}

// RequestPasswordReset mails a single-use reset link. Unknown addresses get
// the same outcome as known ones.
func (s *Service) RequestPasswordReset(ctx context.Context, dto ForgotPasswordDTO) error {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := dto.Validate(); err != nil {
		return err
	}

	row, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.ErrUserNotFound.Is(err) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return errors.NewInternalError("Failed to request password reset", err)
	}

	raw, hash, err := newResetToken()
	if err != nil {
		return errors.NewInternalError("Failed to request password reset", err)
	}
	expiry := s.now().UTC().Add(s.opts.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, row.ID, hash, expiry); err != nil {
		return errors.NewInternalError("Failed to request password reset", err)
	}

	link := strings.TrimRight(s.opts.ResetBaseURL, "/") + "/reset-password/" + raw
	msg := mail.Message{
		To:      []string{row.Email},
		Subject: "Password reset",
		Body: fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
			row.Name, s.opts.ResetTokenTTL, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send reset email", "error", err, "user_id", row.ID)
		return errors.NewInternalError("Failed to send reset email", err)
	}

	s.logger.Info("password reset link sent", "user_id", row.ID)
	return nil
}

// CompleteReset sets a new password for the holder of a valid reset token.
func (s *Service) CompleteReset(ctx context.Context, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	tokenHash := hashResetToken(dto.Token)
	row, err := s.repo.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.ErrUserNotFound.Is(err) {
			return errors.ErrInvalidResetToken
		}
		return errors.NewInternalError("Failed to reset password", err)
	}
	if row.ResetTokenExpiry == nil || !s.now().Before(*row.ResetTokenExpiry) {
		return errors.ErrInvalidResetToken
	}

	hash, err := s.HashPassword(dto.NewPassword)
	if err != nil {
		return errors.NewInternalError("Failed to reset password", err)
	}
	if err := s.repo.ResetPassword(ctx, row.ID, tokenHash, hash); err != nil {
		if errors.ErrInvalidResetToken.Is(err) {
			return err
		}
		return errors.NewInternalError("Failed to reset password", err)
	}

	s.logger.Info("password reset completed", "user_id", row.ID)
	return nil
}

// newResetToken returns the raw token for the link and the digest to store.
func newResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
