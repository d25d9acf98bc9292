package events

import "time"

const LeaveLifecycleTopic = "leave.request.lifecycle.v1"

// LeaveLifecycleEvent is the audit-stream payload emitted whenever a
// leave request is created or decided.
type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	Actor      string    `json:"actor"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
