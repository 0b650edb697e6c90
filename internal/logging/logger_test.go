package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"realigner/internal/config"
	"realigner/internal/logging"
	"realigner/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("group assembled", logging.String("output", "/data/train/dia5_utt2.mp4"))

	content, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if record["msg"] != "group assembled" {
		t.Fatalf("unexpected msg %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-abc")
	ctx = services.WithStage(ctx, "assemble")
	ctx = services.WithGroup(ctx, services.GroupRef{Split: "train", DialogueID: 5, UtteranceID: 2})
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "processor"))
	logger.Info("output written", logging.Int("segments", 2), logging.Float64("expected_seconds", 4.3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	for _, want := range []string{"INFO [processor] train · dia5_utt2 (assemble) – output written", "- Segments: 2", "- Expected: 4.300s", "+ 1 more field hidden"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "run-abc") {
		t.Fatalf("expected run id hidden at info level:\n%s", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		split, dia, utt, stage string
		want                   string
	}{
		{"train", "5", "2", "collect", "train · dia5_utt2 (collect)"},
		{"dev", "1", "", "", "dev · dia1"},
		{"", "", "", "load", "load"},
		{"", "", "", "", ""},
	}
	for _, tt := range tests {
		if got := logging.FormatSubject(tt.split, tt.dia, tt.utt, tt.stage); got != tt.want {
			t.Errorf("FormatSubject(%q,%q,%q,%q) = %q, want %q", tt.split, tt.dia, tt.utt, tt.stage, got, tt.want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = "/var/log/realigner"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	opts := logging.OptionsFromConfig(&cfg)
	if opts.Level != "debug" || opts.Format != "json" {
		t.Fatalf("unexpected level/format: %+v", opts)
	}
	if opts.FilePath != "/var/log/realigner/realigner.log" {
		t.Fatalf("unexpected file path %q", opts.FilePath)
	}
	if nilOpts := logging.OptionsFromConfig(nil); nilOpts.FilePath != "" || nilOpts.Level != "info" {
		t.Fatalf("unexpected defaults for nil config: %+v", nilOpts)
	}
}
