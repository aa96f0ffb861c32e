package auth

import (
	"context"
	"time"

	userDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/mail"
)

// RepositoryAPI is the credential store.
type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*userDatamodel.User, error)
	// UpdatePassword replaces the hash and clears any reset token.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// ResetPassword is UpdatePassword conditioned on the stored reset token
	// digest. It fails with ErrInvalidResetToken when the token was already
	// used or replaced.
	ResetPassword(ctx context.Context, id int64, tokenHash, passwordHash string) error
	SetResetToken(ctx context.Context, id int64, hash string, expiry time.Time) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type TokenGeneratorAPI interface {
	Issue(identity user.Identity) (string, time.Time, error)
	Verify(tokenString string) (*Claims, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      user.Account `json:"user"`
}

func ToAccount(u *userDatamodel.User) user.Account {
	return user.Account{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      user.Role(u.Role),
		Status:    user.Status(u.Status),
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
