package tools

import (
	"context"
	"encoding/json"

	"filebridge/internal/config"
	"filebridge/internal/util"
	"filebridge/internal/workspace"
)

// Meta is the read-only runtime configuration shared by every tool.
type Meta struct {
	Sandbox  *workspace.Sandbox
	AuthType config.AuthType
}

// ToolError is set on a Result exactly when the call failed.
type ToolError struct {
	Message string    `json:"message" yaml:"message"`
	Type    ErrorType `json:"type" yaml:"type"`
}

// Result is what a caller sees for every tool call, successful or not.
type Result struct {
	LLMContent    string     `json:"llm_content" yaml:"llm_content"`
	ReturnDisplay string     `json:"return_display" yaml:"return_display"`
	Error         *ToolError `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether r carries an error.
func (r Result) Failed() bool { return r.Error != nil }

// failure builds an execute-time error result. The action reads as
// "Error <action>: <message>".
func failure(kind ErrorType, action string, err error) Result {
	msg := util.RedactSecrets(err.Error())
	text := "Error " + action + ": " + msg
	return Result{
		LLMContent:    text,
		ReturnDisplay: text,
		Error:         &ToolError{Message: msg, Type: kind},
	}
}

// Tool is a declaratively described operation. Build validates raw
// parameters and never performs side effects.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Build(params json.RawMessage) (Invocation, error)
}

// Invocation is a validated, single-use unit of work. Execute never panics
// and reports every failure through the returned Result.
type Invocation interface {
	Description() string
	Execute(ctx context.Context) Result
}
