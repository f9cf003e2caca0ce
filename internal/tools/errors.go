package tools

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failed tool call. Callers branch on it rather than
// on message text.
type ErrorType string

const (
	ErrorInvalidParams        ErrorType = "invalid_tool_params"
	ErrorToolUnavailable      ErrorType = "tool_unavailable"
	ErrorFileManagerOperation ErrorType = "file_manager_operation_failed"
	ErrorFileManagerList      ErrorType = "file_manager_list_failed"
	ErrorInvocationConsumed   ErrorType = "invocation_consumed"
	ErrorToolNotFound         ErrorType = "tool_not_found"
)

var (
	ErrInvalidParams      = errors.New("invalid tool params")
	ErrToolUnavailable    = errors.New("tool unavailable")
	ErrToolNotFound       = errors.New("tool not found")
	ErrInvocationConsumed = errors.New("invocation already executed")
	ErrEmptyToolName      = errors.New("tool name must not be empty")
	ErrDuplicateTool      = errors.New("tool already registered")
)

// ValidationError is the only error Build returns.
type ValidationError struct {
	Tool    string
	Type    ErrorType
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error {
	switch e.Type {
	case ErrorToolUnavailable:
		return ErrToolUnavailable
	case ErrorToolNotFound:
		return ErrToolNotFound
	default:
		return ErrInvalidParams
	}
}

// Result converts the rejection into the uniform result shape.
func (e *ValidationError) Result() Result {
	switch e.Type {
	case ErrorInvalidParams:
		return Result{
			LLMContent:    fmt.Sprintf("Error: Invalid parameters provided. Reason: %s", e.Message),
			ReturnDisplay: "Error: " + e.Message,
			Error:         &ToolError{Message: e.Message, Type: e.Type},
		}
	default:
		return Result{
			LLMContent:    "Error: " + e.Message,
			ReturnDisplay: "Error: " + e.Message,
			Error:         &ToolError{Message: e.Message, Type: e.Type},
		}
	}
}

func invalidParams(tool, format string, args ...any) *ValidationError {
	return &ValidationError{Tool: tool, Type: ErrorInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func nonEmptyMessage(param string) string {
	return fmt.Sprintf("The '%s' parameter must be non-empty.", param)
}
