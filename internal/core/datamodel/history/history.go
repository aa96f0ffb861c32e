package history

import "time"

type Entry struct {
	ID         int64     `gorm:"primaryKey"`
	Action     string    `gorm:"column:action;not null"`
	DataType   string    `gorm:"column:data_type;not null"`
	RecordID   int64     `gorm:"column:record_id"`
	AdminEmail string    `gorm:"column:admin_email;not null"`
	AdminName  string    `gorm:"column:admin_name"`
	Details    string    `gorm:"column:details"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index"`
}

func (Entry) TableName() string {
	return "history"
}
