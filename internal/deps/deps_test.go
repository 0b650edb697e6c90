package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "exit 0")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestCheckBinariesCapturesVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffmpeg", `echo ""; echo "ffmpeg version 6.1.1 Copyright"; echo "built with gcc"`)

	results := CheckBinaries(context.Background(), []Requirement{{Name: "FFmpeg", Command: stub, VersionArgs: []string{"-version"}}})
	if results[0].Version != "ffmpeg version 6.1.1 Copyright" {
		t.Fatalf("unexpected version %q", results[0].Version)
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffprobe", "exit 0")
	t.Setenv("PATH", binDir)

	results := CheckBinaries(context.Background(), []Requirement{{Name: "FFprobe", Command: "ffprobe"}})
	if !results[0].Available || results[0].Path != stub {
		t.Fatalf("expected PATH resolution to %s, got %#v", stub, results[0])
	}
}

func TestVersionFailure(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "broken", "exit 3")
	if _, err := Version(context.Background(), stub, "-version"); err == nil {
		t.Fatal("expected error for failing binary")
	}
}

func TestMissing(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe"},
		{Name: "Extra", Optional: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "FFprobe" {
		t.Fatalf("unexpected missing set %#v", missing)
	}
}
