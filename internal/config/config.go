package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input table and log directory configuration.
type Paths struct {
	RealignmentCSV string `toml:"realignment_csv"`
	LogDir         string `toml:"log_dir"`
}

// Split describes where one dataset partition keeps its original and realigned clips.
type Split struct {
	OriginalDir     string `toml:"original_dir"`
	RealignedDir    string `toml:"realigned_dir"`
	AltFPSDialogues []int  `toml:"alt_fps_dialogues"`
}

// Encoding contains the fixed ffmpeg profile applied to every segment and output.
type Encoding struct {
	FFmpegBinary  string  `toml:"ffmpeg_binary"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
	VideoCodec    string  `toml:"video_codec"`
	AudioCodec    string  `toml:"audio_codec"`
	AudioChannels int     `toml:"audio_channels"`
	AudioBitrate  string  `toml:"audio_bitrate"`
	MainFPS       float64 `toml:"main_fps"`
	AltFPS        float64 `toml:"alt_fps"`
}

// Verification controls the post-assembly duration check.
type Verification struct {
	Enabled          bool    `toml:"enabled"`
	ToleranceSeconds float64 `toml:"tolerance_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the realigner.
//
// Configuration sections:
//   - Paths: realignment table and log directory
//   - Splits: per-split original/realigned folders and alternate frame rate dialogues
//   - Encoding: ffmpeg binaries and the fixed output profile
//   - Verification: ffprobe duration check after assembly
//   - Logging: log format, level, and retention
type Config struct {
	Paths        Paths            `toml:"paths"`
	Splits       map[string]Split `toml:"splits"`
	Encoding     Encoding         `toml:"encoding"`
	Verification Verification     `toml:"verification"`
	Logging      Logging          `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/realigner/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("realigner.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and every split's realigned directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	for _, name := range c.SplitNames() {
		dirs = append(dirs, c.Splits[name].RealignedDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SplitNames returns configured split names in sorted order.
func (c *Config) SplitNames() []string {
	names := make([]string, 0, len(c.Splits))
	for name := range c.Splits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Split returns the configuration for the named split.
func (c *Config) Split(name string) (Split, bool) {
	split, ok := c.Splits[name]
	return split, ok
}

// FrameRateFor returns the output frame rate for a dialogue of the given split.
// Dialogues listed in the split's alt_fps_dialogues use the alternate rate.
func (c *Config) FrameRateFor(split string, dialogueID int) float64 {
	if s, ok := c.Splits[split]; ok {
		for _, id := range s.AltFPSDialogues {
			if id == dialogueID {
				return c.Encoding.AltFPS
			}
		}
	}
	return c.Encoding.MainFPS
}

// FFmpegBinary returns the ffmpeg executable used for cutting and concatenation.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoding.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for output verification.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Encoding.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// LedgerPath returns the SQLite ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.LogDir, "realign.db")
}

// LockPath returns the run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "realign.lock")
}

// LogFilePath returns realigner.log, which each run points at its own log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "realigner.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
