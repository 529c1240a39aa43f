package logging

import (
	"context"
	"log/slog"
)

// Context keys for audit identifiers.
type contextKey string

const (
	// RunIDKey is the context key for audit run IDs.
	RunIDKey contextKey = "run_id"

	// RuleIDKey is the context key for rule IDs.
	RuleIDKey contextKey = "rule_id"

	// EngineKey is the context key for engine IDs.
	EngineKey contextKey = "engine"

	// TriggerKey is the context key for what started a run
	// ("manual", "watch", "schedule").
	TriggerKey contextKey = "trigger"
)

// WithRunID adds an audit run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// RunID retrieves the audit run ID from the context.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRuleID adds a rule ID to the context.
func WithRuleID(ctx context.Context, ruleID string) context.Context {
	return context.WithValue(ctx, RuleIDKey, ruleID)
}

// RuleID retrieves the rule ID from the context.
func RuleID(ctx context.Context) string {
	if id, ok := ctx.Value(RuleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithEngine adds an engine ID to the context.
func WithEngine(ctx context.Context, engine string) context.Context {
	return context.WithValue(ctx, EngineKey, engine)
}

// Engine retrieves the engine ID from the context.
func Engine(ctx context.Context) string {
	if id, ok := ctx.Value(EngineKey).(string); ok {
		return id
	}
	return ""
}

// WithTrigger adds a run trigger to the context.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, TriggerKey, trigger)
}

// Trigger retrieves the run trigger from the context.
func Trigger(ctx context.Context) string {
	if t, ok := ctx.Value(TriggerKey).(string); ok {
		return t
	}
	return ""
}

// contextAttrs collects the audit identifiers present in the context as
// slog attributes.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if id := RunID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RunIDKey), id))
	}
	if id := RuleID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RuleIDKey), id))
	}
	if id := Engine(ctx); id != "" {
		attrs = append(attrs, slog.String(string(EngineKey), id))
	}
	if t := Trigger(ctx); t != "" {
		attrs = append(attrs, slog.String(string(TriggerKey), t))
	}

	return attrs
}

// contextHandler decorates each record with the audit identifiers stored
// in the context before delegating to the wrapped handler.
type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		rec.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
