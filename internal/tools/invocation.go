package tools

import (
	"context"
	"fmt"
	"sync/atomic"
)

// invocation runs exactly once. Later Execute calls return an
// invocation_consumed result without calling run.
type invocation struct {
	description string
	kind        ErrorType
	action      string
	run         func(ctx context.Context) Result
	used        atomic.Bool
}

func newInvocation(description string, kind ErrorType, action string, run func(ctx context.Context) Result) *invocation {
	return &invocation{description: description, kind: kind, action: action, run: run}
}

func (i *invocation) Description() string { return i.description }

func (i *invocation) Execute(ctx context.Context) (result Result) {
	if !i.used.CompareAndSwap(false, true) {
		msg := ErrInvocationConsumed.Error()
		return Result{
			LLMContent:    "Error: " + msg,
			ReturnDisplay: "Error: " + msg,
			Error:         &ToolError{Message: msg, Type: ErrorInvocationConsumed},
		}
	}
	defer func() {
		if r := recover(); r != nil {
			result = failure(i.kind, i.action, fmt.Errorf("panic: %v", r))
		}
	}()
	return i.run(ctx)
}
