// Package workspace manages the private temporary directory each output clip
// is built in.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"realigner/internal/logging"
)

// ListFileName is the concat list written inside every workspace.
const ListFileName = "segments.txt"

// DirName returns the temp directory name for a clip, e.g. tmp_dia5_utt2.
func DirName(dialogueID, utteranceID int) string {
	return fmt.Sprintf("tmp_dia%d_utt%d", dialogueID, utteranceID)
}

// Workspace is one clip's temporary directory.
type Workspace struct {
	dir      string
	segments []string
	logger   *slog.Logger
}

// Create makes (or reuses) the temp directory for a clip under parent.
// Leftovers from an interrupted earlier attempt are discarded first.
func Create(parent string, dialogueID, utteranceID int, logger *slog.Logger) (*Workspace, error) {
	parent = strings.TrimSpace(parent)
	if parent == "" {
		return nil, fmt.Errorf("workspace parent directory is required")
	}
	dir := filepath.Join(parent, DirName(dialogueID, utteranceID))
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear stale workspace %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &Workspace{dir: dir, logger: logger}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// NextSegment reserves the path for the next segment (video_0.mp4, video_1.mp4, ...).
// The path is only recorded once Commit is called.
func (w *Workspace) NextSegment() string {
	return filepath.Join(w.dir, fmt.Sprintf("video_%d.mp4", len(w.segments)))
}

// Commit records a successfully written segment.
func (w *Workspace) Commit(path string) {
	w.segments = append(w.segments, path)
}

// Segments returns the committed segments in order.
func (w *Workspace) Segments() []string {
	return append([]string(nil), w.segments...)
}

// ListFile returns the concat list path.
func (w *Workspace) ListFile() string {
	return filepath.Join(w.dir, ListFileName)
}

// Close removes the workspace and everything in it. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		logging.WarnWithContext(w.logger, "failed to remove workspace", "workspace_cleanup_failed",
			logging.String("workspace", w.dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check realigned_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return fmt.Errorf("remove workspace %s: %w", w.dir, err)
	}
	w.segments = nil
	return nil
}

// CleanupResult contains the outcome of a stale workspace sweep.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes tmp_dia*_utt* directories under parent older than maxAge.
// They are left behind only when a run is killed mid-group.
func CleanStale(ctx context.Context, parent string, maxAge time.Duration, logger *slog.Logger) CleanupResult {
	result := CleanupResult{}
	parent = strings.TrimSpace(parent)
	if parent == "" {
		return result
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: parent, Error: err})
		}
		return result
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() || !isWorkspaceName(entry.Name()) {
			continue
		}
		path := filepath.Join(parent, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed stale workspace",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "workspace_cleanup"),
			)
		}
	}
	return result
}

func isWorkspaceName(name string) bool {
	var dia, utt int
	n, err := fmt.Sscanf(name, "tmp_dia%d_utt%d", &dia, &utt)
	return err == nil && n == 2 && name == DirName(dia, utt)
}
