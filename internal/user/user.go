package user

import (
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/core/common/validation"
	coreUser "github.com/frahmantamala/power-data-portal/internal/core/user"
)

// Changes is an admin edit of an account. Nil fields are left alone.
type Changes struct {
	Role   *coreUser.Role
	Status *coreUser.Status
}

func (c Changes) Empty() bool {
	return c.Role == nil && c.Status == nil
}

// Row is the account projection read by the admin repository.
type Row struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	Role      string     `db:"role"`
	Status    string     `db:"status"`
	LastLogin *time.Time `db:"last_login"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r *Row) Account() coreUser.Account {
	return coreUser.Account{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      coreUser.Role(r.Role),
		Status:    coreUser.Status(r.Status),
		LastLogin: r.LastLogin,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

var (
	roles    = []string{string(coreUser.RoleUser), string(coreUser.RoleAdmin)}
	statuses = []string{string(coreUser.StatusPending), string(coreUser.StatusActive), string(coreUser.StatusDisabled)}
)

// ValidateStatusFilter accepts an empty filter or a known status.
func ValidateStatusFilter(status string) error {
	v := validation.NewValidator()
	v.Field("status", status).OneOf(statuses...)
	return v.Check()
}

var errNoChanges = errors.NewValidationError("Nothing to update: provide role or status", errors.ErrCodeMissingFields)
