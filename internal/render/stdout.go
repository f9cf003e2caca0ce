package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"filebridge/internal/events"
)

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
	quiet   bool
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, verbose bool, quiet bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose, quiet: quiet}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quiet {
		return
	}

	switch event.Type {
	case events.BatchStarted:
		if payload, ok := event.Payload.(events.BatchStartedPayload); ok && r.verbose {
			fmt.Fprintf(r.w, "batch: %d call(s) | id: %s\n", payload.Size, payload.BatchID)
		}
	case events.ToolCallRejected:
		if payload, ok := event.Payload.(events.ToolCallRejectedPayload); ok {
			fmt.Fprintf(r.w, "tool: %s rejected [%s]: %s\n", payload.ToolName, payload.ErrorType, payload.Message)
		}
	case events.ToolCallStarted:
		if payload, ok := event.Payload.(events.ToolCallStartedPayload); ok {
			if !r.verbose {
				return
			}
			fmt.Fprintf(r.w, "tool: %s start | %s\n", payload.ToolName, payload.Description)
			fmt.Fprintf(r.w, "input: %v\n", payload.Input)
		}
	case events.ToolCallFinished, events.ToolCallFailed:
		if payload, ok := event.Payload.(events.ToolCallFinishedPayload); ok {
			status := "ok"
			if payload.Status != "success" {
				status = "err"
				if payload.ErrorType != "" {
					status += " [" + payload.ErrorType + "]"
				}
			}
			trunc := ""
			if payload.Truncated {
				trunc = ", truncated"
			}
			fmt.Fprintf(r.w, "tool: %s %s (%dms, %d lines, %d bytes%s)\n", payload.ToolName, status, payload.DurationMs, payload.LineCount, payload.ByteCount, trunc)
			if r.verbose && payload.Preview != "" {
				fmt.Fprintln(r.w, "preview:")
				for _, line := range strings.Split(payload.Preview, "\n") {
					fmt.Fprintf(r.w, "  %s\n", line)
				}
			}
		}
	case events.BatchFinished:
		if payload, ok := event.Payload.(events.BatchFinishedPayload); ok {
			fmt.Fprintf(r.w, "batch: %d/%d failed (%dms)\n", payload.Failed, payload.Size, payload.DurationMs)
		}
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}
