package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Published by the attendance service
	EventReconciliationCompleted = "attendance.reconciliation.completed"
	EventReconciliationSkipped   = "attendance.reconciliation.skipped"

	// Consumed from the biometric ingestion service
	EventPunchIngested = "biometric.punch.ingested"
)

// Exchange names
const (
	ExchangeAttendanceEvents = "attendance.events"
	ExchangeBiometricEvents  = "biometric.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ReconciliationCompletedEvent is published after every run, including runs with failed days.
type ReconciliationCompletedEvent struct {
	RunID                   string `json:"run_id"`
	Trigger                 string `json:"trigger"`
	CompanyID               string `json:"company_id,omitempty"`
	EmployeeID              string `json:"employee_id,omitempty"`
	DateFrom                string `json:"date_from"`
	DateTo                  string `json:"date_to"`
	Processed               int    `json:"processed"`
	Created                 int    `json:"created"`
	Updated                 int    `json:"updated"`
	Skipped                 int    `json:"skipped"`
	Failed                  int    `json:"failed"`
	PermissionConsumedHours string `json:"permission_consumed_hours"`
}

// ReconciliationSkippedEvent reports a scheduled run dropped by the overlap guard.
type ReconciliationSkippedEvent struct {
	Trigger string `json:"trigger"`
	Date    string `json:"date"`
	Reason  string `json:"reason"`
}

// PunchIngestedEvent announces new punches for one employee and day.
type PunchIngestedEvent struct {
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id"`
	PunchDate  string `json:"punch_date"`
}
