package request

import (
	"time"

	"gorm.io/datatypes"
)

type PendingRequest struct {
	ID              int64          `gorm:"primaryKey"`
	DataType        string         `gorm:"column:data_type;not null;index"`
	Data            datatypes.JSON `gorm:"column:data;not null"`
	SubmittedBy     string         `gorm:"column:submitted_by;not null"`
	SubmittedByName string         `gorm:"column:submitted_by_name"`
	Status          string         `gorm:"column:status;not null;default:'pending';index"`
	ReviewedBy      *string        `gorm:"column:reviewed_by"`
	ReviewedAt      *time.Time     `gorm:"column:reviewed_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (PendingRequest) TableName() string {
	return "pending_requests"
}
