package user

import (
	"strings"

	"github.com/frahmantamala/power-data-portal/internal/core/common/validation"
	coreUser "github.com/frahmantamala/power-data-portal/internal/core/user"
)

// UpdateUserDTO is the body of PATCH /api/users/{id}.
type UpdateUserDTO struct {
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Role != nil {
		v.Field("role", strings.TrimSpace(*d.Role)).Required().OneOf(roles...)
	}
	if d.Status != nil {
		v.Field("status", strings.TrimSpace(*d.Status)).Required().OneOf(statuses...)
	}
	if err := v.Check(); err != nil {
		return err
	}
	if d.Role == nil && d.Status == nil {
		return errNoChanges
	}
	return nil
}

func (d UpdateUserDTO) Changes() Changes {
	var c Changes
	if d.Role != nil {
		role := coreUser.Role(strings.TrimSpace(*d.Role))
		c.Role = &role
	}
	if d.Status != nil {
		status := coreUser.Status(strings.TrimSpace(*d.Status))
		c.Status = &status
	}
	return c
}
