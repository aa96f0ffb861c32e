package history

import (
	"time"

	historyDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/history"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one immutable line of the audit log.
type Entry struct {
	ID         int64     `json:"id"`
	Action     Action    `json:"action"`
	DataType   string    `json:"dataType"`
	RecordID   int64     `json:"recordId"`
	AdminEmail string    `json:"adminEmail"`
	AdminName  string    `json:"adminName"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// Filter narrows List results. Empty fields match everything; non-empty
// fields are case-insensitive substring matches.
type Filter struct {
	Actor    string
	Action   string
	DataType string
}

func ToDataModel(e *Entry) *historyDatamodel.Entry {
	return &historyDatamodel.Entry{
		ID:         e.ID,
		Action:     string(e.Action),
		DataType:   e.DataType,
		RecordID:   e.RecordID,
		AdminEmail: e.AdminEmail,
		AdminName:  e.AdminName,
		Details:    e.Details,
		Timestamp:  e.Timestamp,
	}
}

func FromDataModel(dm *historyDatamodel.Entry) *Entry {
	return &Entry{
		ID:         dm.ID,
		Action:     Action(dm.Action),
		DataType:   dm.DataType,
		RecordID:   dm.RecordID,
		AdminEmail: dm.AdminEmail,
		AdminName:  dm.AdminName,
		Details:    dm.Details,
		Timestamp:  dm.Timestamp,
	}
}
