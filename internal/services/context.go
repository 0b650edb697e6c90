package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	stageKey contextKey = "stage"
	groupKey contextKey = "group"
)

// GroupRef identifies the realignment group currently being processed.
type GroupRef struct {
	Split       string
	DialogueID  int
	UtteranceID int
}

// WithRunID annotates context with the realignment run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the group processing stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithGroup annotates context with the group being processed.
func WithGroup(ctx context.Context, ref GroupRef) context.Context {
	return context.WithValue(ctx, groupKey, ref)
}

// GroupFromContext returns the group reference if present.
func GroupFromContext(ctx context.Context) (GroupRef, bool) {
	ref, ok := ctx.Value(groupKey).(GroupRef)
	return ref, ok
}
