package realignrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"realigner/internal/config"
	"realigner/internal/ledger"
	"realigner/internal/logging"
	"realigner/internal/preflight"
	"realigner/internal/realign"
)

// Options configures one realignment invocation.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// Split limits the run to one split.
	Split  string
	Resume bool
	DryRun bool
	// SkipPreflight bypasses the readiness checks.
	SkipPreflight bool
	// Configure, when set, customizes the runner before it starts.
	Configure func(*realign.Runner)
}

// Session describes the artifacts of a finished invocation.
type Session struct {
	Summary realign.Summary
	LogPath string
}

// Run prepares logging, preflight, and the ledger, then executes one realignment run.
// SIGINT and SIGTERM cancel the run; the clip in flight is cleaned up.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (Session, error) {
	if cfg == nil {
		return Session{}, fmt.Errorf("config is required")
	}
	if err := cfg.ValidateForRun(); err != nil {
		return Session{}, err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return Session{}, fmt.Errorf("create log directory: %w", err)
	}
	stamp := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("realigner-%s.log", stamp))
	session := Session{LogPath: logPath}

	logOpts := logging.OptionsFromConfig(cfg)
	logOpts.FilePath = logPath
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logOpts.Level = level
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return session, fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update realigner.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "realigner-*.log", Exclude: []string{logPath}},
	)
	logDependencySnapshot(logger, cfg)

	if !opts.SkipPreflight {
		results := preflight.RunAll(signalCtx, cfg, opts.Split)
		if opts.DryRun {
			results = preflight.WithoutBinaries(results)
		}
		if err := preflight.Err(results); err != nil {
			logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'realigner check' for details"),
			)
			return session, err
		}
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return session, fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	runner := realign.NewRunner(cfg, store, logger)
	if opts.Configure != nil {
		opts.Configure(runner)
	}
	session.Summary, err = runner.Run(signalCtx, realign.Options{
		Split:  opts.Split,
		Resume: opts.Resume,
		DryRun: opts.DryRun,
	})
	return session, err
}

// ensureCurrentLogPointer points <log_dir>/realigner.log at the newest run log.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "realigner.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := cfg.FFmpegBinary()
	ffprobe := cfg.FFprobeBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", binaryAvailable(ffmpeg)),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.Bool("ffprobe_available", binaryAvailable(ffprobe)),
		logging.String("ffprobe_binary", ffprobe),
		logging.Bool("verification_enabled", cfg.Verification.Enabled),
		logging.String("splits", strings.Join(cfg.SplitNames(), ",")),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
