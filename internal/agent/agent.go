// Package agent dispatches tool calls issued by an agent or a user.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filebridge/internal/events"
	"filebridge/internal/metrics"
	"filebridge/internal/render"
	"filebridge/internal/telemetry"
	"filebridge/internal/tools"
	"filebridge/internal/util"
)

const (
	previewLines = 12
	previewBytes = 2048
)

// Call is a single tool request.
type Call struct {
	ID        string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string          `json:"name" yaml:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty" yaml:"-"`
}

// ToolCallRecord records the outcome of one call.
type ToolCallRecord struct {
	InvocationID string       `json:"invocation_id" yaml:"invocation_id"`
	CallID       string       `json:"call_id,omitempty" yaml:"call_id,omitempty"`
	ToolName     string       `json:"tool_name" yaml:"tool_name"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Status       string       `json:"status" yaml:"status"`
	Result       tools.Result `json:"result" yaml:"result"`
	StartedAt    time.Time    `json:"started_at" yaml:"started_at"`
	DurationMs   int64        `json:"duration_ms" yaml:"duration_ms"`
}

// Options tunes a Dispatcher. Zero values disable the feature.
type Options struct {
	Metrics     *metrics.Collector
	Tracer      trace.Tracer
	Concurrency int
	// Timeout bounds each Execute call.
	Timeout time.Duration
}

// Dispatcher looks tools up, builds invocations and executes them, turning
// every outcome into a tools.Result.
type Dispatcher struct {
	tools    *tools.Registry
	renderer render.Renderer
	logger   *zap.Logger
	opts     Options
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(toolsReg *tools.Registry, renderer render.Renderer, logger *zap.Logger, opts Options) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = (*telemetry.Provider)(nil).Tracer()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Dispatcher{tools: toolsReg, renderer: renderer, logger: logger, opts: opts}
}

// Tools returns the registry served by d.
func (d *Dispatcher) Tools() *tools.Registry { return d.tools }

func (d *Dispatcher) emit(event events.Event) {
	if d.renderer != nil {
		d.renderer.Emit(event)
	}
}

// Run executes call and never fails; lookup and validation problems are
// reported in the returned record's Result.
func (d *Dispatcher) Run(ctx context.Context, call Call) ToolCallRecord {
	invocationID := uuid.NewString()
	started := time.Now()
	record := ToolCallRecord{
		InvocationID: invocationID,
		CallID:       call.ID,
		ToolName:     call.Name,
		StartedAt:    started,
	}

	ctx, span := d.opts.Tracer.Start(ctx, telemetry.SpanToolCall, trace.WithAttributes(telemetry.ToolAttrs(call.Name, invocationID)...))
	defer span.End()
	logger := d.logger.With(zap.String("invocation_id", invocationID), zap.String("tool", call.Name))

	tool, ok := d.tools.Get(call.Name)
	if !ok {
		verr := &tools.ValidationError{
			Tool:    call.Name,
			Type:    tools.ErrorToolNotFound,
			Message: fmt.Sprintf("Tool %q not found. Available tools: %s", call.Name, strings.Join(d.tools.Names(), ", ")),
		}
		return d.reject(span, logger, record, verr)
	}

	inv, err := tool.Build(call.Arguments)
	if err != nil {
		var verr *tools.ValidationError
		if !errors.As(err, &verr) {
			verr = &tools.ValidationError{Tool: call.Name, Type: tools.ErrorInvalidParams, Message: err.Error()}
		}
		return d.reject(span, logger, record, verr)
	}
	record.Description = inv.Description()

	d.emit(events.New(events.ToolCallStarted, events.ToolCallStartedPayload{
		InvocationID: invocationID,
		ToolName:     call.Name,
		Description:  record.Description,
		Input:        sanitizeInput(call.Arguments),
		StartedAt:    started,
	}))
	logger.Debug("tool call started", zap.String("description", record.Description))

	execCtx := ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	d.opts.Metrics.Started(call.Name)
	result := inv.Execute(execCtx)
	duration := time.Since(started)

	record.Result = result
	record.DurationMs = duration.Milliseconds()
	record.Status = "success"
	outcome := "success"
	eventType := events.ToolCallFinished
	errorType := ""
	if result.Error != nil {
		record.Status = "error"
		outcome = string(result.Error.Type)
		eventType = events.ToolCallFailed
		errorType = string(result.Error.Type)
		span.SetStatus(codes.Error, result.Error.Message)
		span.SetAttributes(attribute.String(telemetry.AttrErrorType, errorType))
	}
	d.opts.Metrics.Finished(call.Name, outcome, duration)

	preview := util.Preview(result.LLMContent, previewLines, previewBytes)
	d.emit(events.New(eventType, events.ToolCallFinishedPayload{
		InvocationID: invocationID,
		ToolName:     call.Name,
		Status:       record.Status,
		ErrorType:    errorType,
		Preview:      preview,
		LineCount:    strings.Count(result.LLMContent, "\n") + 1,
		ByteCount:    len(result.LLMContent),
		Truncated:    preview != result.LLMContent,
		DurationMs:   record.DurationMs,
	}))

	fields := []zap.Field{zap.String("status", record.Status), zap.Duration("duration", duration)}
	if result.Error != nil {
		logger.Warn("tool call failed", append(fields, zap.String("error_type", errorType), zap.String("error", result.Error.Message))...)
	} else {
		logger.Info("tool call finished", fields...)
	}
	return record
}

func (d *Dispatcher) reject(span trace.Span, logger *zap.Logger, record ToolCallRecord, verr *tools.ValidationError) ToolCallRecord {
	record.Result = verr.Result()
	record.Status = "rejected"
	span.SetStatus(codes.Error, verr.Message)
	span.SetAttributes(attribute.String(telemetry.AttrErrorType, string(verr.Type)))
	d.opts.Metrics.Rejected(record.ToolName, string(verr.Type))
	d.emit(events.New(events.ToolCallRejected, events.ToolCallRejectedPayload{
		InvocationID: record.InvocationID,
		ToolName:     record.ToolName,
		ErrorType:    string(verr.Type),
		Message:      verr.Message,
	}))
	logger.Warn("tool call rejected", zap.String("error_type", string(verr.Type)), zap.String("reason", truncateReason(verr.Message)))
	return record
}

// RunBatch runs calls with bounded concurrency. Records are returned in the
// order of calls.
func (d *Dispatcher) RunBatch(ctx context.Context, calls []Call) []ToolCallRecord {
	batchID := uuid.NewString()
	started := time.Now()
	ctx, span := d.opts.Tracer.Start(ctx, telemetry.SpanToolBatch, trace.WithAttributes(attribute.Int(telemetry.AttrBatchSize, len(calls))))
	defer span.End()
	d.emit(events.New(events.BatchStarted, events.BatchStartedPayload{BatchID: batchID, Size: len(calls)}))

	records := make([]ToolCallRecord, len(calls))
	var mu sync.Mutex
	failed := 0
	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)
	for i, call := range calls {
		g.Go(func() error {
			records[i] = d.Run(ctx, call)
			if records[i].Result.Failed() {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	d.emit(events.New(events.BatchFinished, events.BatchFinishedPayload{
		BatchID:    batchID,
		Size:       len(calls),
		Failed:     failed,
		DurationMs: time.Since(started).Milliseconds(),
	}))
	d.logger.Info("batch finished", zap.String("batch_id", batchID), zap.Int("size", len(calls)), zap.Int("failed", failed))
	return records
}

func truncateReason(msg string) string {
	out, _ := util.TruncateBytes(util.RedactSecrets(msg), 512)
	return out
}

func sanitizeInput(args json.RawMessage) any {
	if len(args) == 0 {
		return map[string]any{}
	}
	var data any
	if err := json.Unmarshal(args, &data); err != nil {
		return map[string]any{"raw": util.RedactSecrets(string(args))}
	}
	if bytes, err := json.Marshal(data); err == nil {
		return util.RedactSecrets(string(bytes))
	}
	return data
}
