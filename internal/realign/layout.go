package realign

import (
	"fmt"
	"path/filepath"
	"strings"

	"realigner/internal/config"
	"realigner/internal/services"
)

// ClipName returns the file name of a clip, e.g. dia5_utt2.mp4.
func ClipName(dialogueID, utteranceID int) string {
	return fmt.Sprintf("dia%d_utt%d.mp4", dialogueID, utteranceID)
}

// Layout derives on-disk paths from the configured split directories.
type Layout struct {
	cfg *config.Config
}

// NewLayout returns a layout backed by cfg.
func NewLayout(cfg *config.Config) Layout {
	return Layout{cfg: cfg}
}

func (l Layout) split(name string) (config.Split, error) {
	if l.cfg == nil {
		return config.Split{}, services.Wrap(services.ErrConfiguration, "layout", "resolve split", "configuration missing", nil)
	}
	split, ok := l.cfg.Split(name)
	if !ok {
		return config.Split{}, services.Wrap(services.ErrConfiguration, "layout", "resolve split",
			fmt.Sprintf("split %q is not configured", name), nil)
	}
	return split, nil
}

// OriginalPath returns <original_dir>/dia{D}_utt{U}.mp4 for the split.
func (l Layout) OriginalPath(split string, dialogueID, utteranceID int) (string, error) {
	s, err := l.split(split)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s.OriginalDir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "layout", "resolve original clip",
			fmt.Sprintf("split %q has no original_dir", split), nil)
	}
	return filepath.Join(s.OriginalDir, ClipName(dialogueID, utteranceID)), nil
}

// RealignedDir returns the output directory of the split. Workspaces live inside it.
func (l Layout) RealignedDir(split string) (string, error) {
	s, err := l.split(split)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s.RealignedDir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "layout", "resolve output directory",
			fmt.Sprintf("split %q has no realigned_dir", split), nil)
	}
	return s.RealignedDir, nil
}

// OutputPath returns <realigned_dir>/dia{D}_utt{U}.mp4 for the split.
func (l Layout) OutputPath(split string, dialogueID, utteranceID int) (string, error) {
	dir, err := l.RealignedDir(split)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ClipName(dialogueID, utteranceID)), nil
}
