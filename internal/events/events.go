package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	BatchStarted     Type = "BatchStarted"
	ToolCallRejected Type = "ToolCallRejected"
	ToolCallStarted  Type = "ToolCallStarted"
	ToolCallFinished Type = "ToolCallFinished"
	ToolCallFailed   Type = "ToolCallFailed"
	BatchFinished    Type = "BatchFinished"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type" yaml:"type"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Payload   any       `json:"payload" yaml:"payload"`
}

// New stamps an event with the current time.
func New(t Type, payload any) Event {
	return Event{Type: t, Timestamp: time.Now(), Payload: payload}
}

// BatchStartedPayload opens a batch of tool calls.
type BatchStartedPayload struct {
	BatchID string `json:"batch_id" yaml:"batch_id"`
	Size    int    `json:"size" yaml:"size"`
}

// BatchFinishedPayload closes a batch.
type BatchFinishedPayload struct {
	BatchID    string `json:"batch_id" yaml:"batch_id"`
	Size       int    `json:"size" yaml:"size"`
	Failed     int    `json:"failed" yaml:"failed"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// ToolCallRejectedPayload records a call that failed lookup or validation
// and never executed.
type ToolCallRejectedPayload struct {
	InvocationID string `json:"invocation_id" yaml:"invocation_id"`
	ToolName     string `json:"tool_name" yaml:"tool_name"`
	ErrorType    string `json:"error_type" yaml:"error_type"`
	Message      string `json:"message" yaml:"message"`
}

// ToolCallStartedPayload marks tool call start.
type ToolCallStartedPayload struct {
	InvocationID string    `json:"invocation_id" yaml:"invocation_id"`
	ToolName     string    `json:"tool_name" yaml:"tool_name"`
	Description  string    `json:"description" yaml:"description"`
	Input        any       `json:"input" yaml:"input"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
}

// ToolCallFinishedPayload marks tool call end, successful or not.
type ToolCallFinishedPayload struct {
	InvocationID string `json:"invocation_id" yaml:"invocation_id"`
	ToolName     string `json:"tool_name" yaml:"tool_name"`
	Status       string `json:"status" yaml:"status"`
	ErrorType    string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Preview      string `json:"preview" yaml:"preview"`
	LineCount    int    `json:"line_count" yaml:"line_count"`
	ByteCount    int    `json:"byte_count" yaml:"byte_count"`
	Truncated    bool   `json:"truncated" yaml:"truncated"`
	DurationMs   int64  `json:"duration_ms" yaml:"duration_ms"`
}
