package user

import "time"

type User struct {
	ID               int64      `gorm:"primaryKey"`
	Name             string     `gorm:"column:name;not null"`
	Email            string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	Role             string     `gorm:"column:role;not null;default:'user'"`
	Status           string     `gorm:"column:status;not null;default:'pending'"`
	ResetTokenHash   *string    `gorm:"column:reset_token_hash;index"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_token_expiry"`
	LastLogin        *time.Time `gorm:"column:last_login"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
