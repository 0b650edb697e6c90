package realign

import (
	"context"
	"log/slog"

	"realigner/internal/logging"
)

// Clip identifies a finished output clip.
type Clip struct {
	Split       string
	DialogueID  int
	UtteranceID int
	Path        string
}

// AudioExtractor is the post-assembly audio step. It runs once per written clip.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, clip Clip) error
}

// DisabledAudioExtractor is the default AudioExtractor. It only notes that
// the step was skipped.
type DisabledAudioExtractor struct {
	Logger *slog.Logger
}

// ExtractAudio logs at debug level and returns nil.
func (d DisabledAudioExtractor) ExtractAudio(ctx context.Context, clip Clip) error {
	logger := logging.WithContext(ctx, d.Logger)
	logger.Debug("audio extraction disabled",
		logging.String("output", clip.Path),
		logging.String(logging.FieldEventType, "audio_extraction_skipped"),
	)
	return nil
}
