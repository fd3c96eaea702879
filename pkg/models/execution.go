package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionStatus is the state of a workflow run reported by the service.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether the run has finished.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	default:
		return false
	}
}

// NodeEventType marks a node starting or finishing during a debug run.
type NodeEventType string

const (
	NodeEventEnter    NodeEventType = "ENTER"
	NodeEventComplete NodeEventType = "COMPLETE"
)

// NodeExecutionEvent is the payload of a "node-execution" debug event.
type NodeExecutionEvent struct {
	ExecutionID      string         `json:"executionId"`
	NodeID           string         `json:"nodeId"`
	NodeName         string         `json:"nodeName"`
	NodeType         NodeType       `json:"nodeType"`
	EventType        NodeEventType  `json:"eventType"`
	ContextVariables map[string]any `json:"contextVariables,omitempty"`
	NodeResult       any            `json:"nodeResult,omitempty"`
	Timestamp        Timestamp      `json:"timestamp"`
	Duration         *int64         `json:"duration,omitempty"` // milliseconds
}

// Timestamp accepts RFC 3339, zoneless ISO-8601 local times, epoch
// milliseconds and [y,m,d,h,min,s,nanos] arrays. Zoneless values are read as UTC.
type Timestamp struct {
	time.Time
}

var localLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		t.Time = time.Time{}

		return nil
	case data[0] == '"':
		var s string

		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}

		for _, layout := range localLayouts {
			parsed, err := time.Parse(layout, s)
			if err == nil {
				t.Time = parsed

				return nil
			}
		}

		return fmt.Errorf("invalid timestamp %q", s)
	case data[0] == '[':
		var parts []int

		err := json.Unmarshal(data, &parts)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}

		for len(parts) < 7 {
			parts = append(parts, 0)
		}

		t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.UTC)

		return nil
	default:
		var millis int64

		err := json.Unmarshal(data, &millis)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}

		t.Time = time.UnixMilli(millis).UTC()

		return nil
	}
}
