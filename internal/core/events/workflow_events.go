package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRequestSubmitted = "request.submitted"
	EventTypeRequestApproved  = "request.approved"
	EventTypeRequestRejected  = "request.rejected"
	EventTypeRecordCommitted  = "record.committed"
)

// RequestEvent covers the lifecycle of a pending request.
type RequestEvent struct {
	BaseEvent
	RequestID   int64  `json:"request_id"`
	DataType    string `json:"data_type"`
	SubmittedBy string `json:"submitted_by"`
	Reviewer    string `json:"reviewer,omitempty"`
	RecordID    int64  `json:"record_id,omitempty"`
}

func newRequestEvent(eventType string, requestID int64, dataType, submittedBy, reviewer string, recordID int64) *RequestEvent {
	return &RequestEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"data_type":    dataType,
				"submitted_by": submittedBy,
				"reviewer":     reviewer,
				"record_id":    recordID,
			},
		},
		RequestID:   requestID,
		DataType:    dataType,
		SubmittedBy: submittedBy,
		Reviewer:    reviewer,
		RecordID:    recordID,
	}
}

func NewRequestSubmittedEvent(requestID int64, dataType, submittedBy string) *RequestEvent {
	return newRequestEvent(EventTypeRequestSubmitted, requestID, dataType, submittedBy, "", 0)
}

func NewRequestApprovedEvent(requestID int64, dataType, submittedBy, reviewer string, recordID int64) *RequestEvent {
	return newRequestEvent(EventTypeRequestApproved, requestID, dataType, submittedBy, reviewer, recordID)
}

func NewRequestRejectedEvent(requestID int64, dataType, submittedBy, reviewer string) *RequestEvent {
	return newRequestEvent(EventTypeRequestRejected, requestID, dataType, submittedBy, reviewer, 0)
}

// RecordCommittedEvent is published when a record is written directly by an
// admin or through an approval.
type RecordCommittedEvent struct {
	BaseEvent
	DataType  string `json:"data_type"`
	RecordID  int64  `json:"record_id"`
	CreatedBy string `json:"created_by"`
}

func NewRecordCommittedEvent(dataType string, recordID int64, createdBy string) *RecordCommittedEvent {
	return &RecordCommittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecordCommitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"data_type":  dataType,
				"record_id":  recordID,
				"created_by": createdBy,
			},
		},
		DataType:  dataType,
		RecordID:  recordID,
		CreatedBy: createdBy,
	}
}
