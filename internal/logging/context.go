package logging

import (
	"context"
	"log/slog"

	"realigner/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for realignment run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for group processing stages.
	FieldStage = "stage"
	// FieldSplit is the standardized structured logging key for dataset splits.
	FieldSplit = "split"
	// FieldDialogueID is the standardized structured logging key for dialogue identifiers.
	FieldDialogueID = "dialogue_id"
	// FieldUtteranceID is the standardized structured logging key for utterance identifiers.
	FieldUtteranceID = "utterance_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if ref, ok := services.GroupFromContext(ctx); ok {
		fields = append(fields,
			slog.String(FieldSplit, ref.Split),
			slog.Int(FieldDialogueID, ref.DialogueID),
			slog.Int(FieldUtteranceID, ref.UtteranceID),
		)
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
