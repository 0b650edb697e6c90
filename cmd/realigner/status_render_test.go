package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Status", statusError, "Failed", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Status:", "[ERROR] Failed")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Status", statusOK, "Completed", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestTitleLabel(t *testing.T) {
	tests := map[string]string{
		"train":      "Train",
		"cancelled":  "Cancelled",
		"dev_splits": "Dev Splits",
		"":           "-",
	}
	for input, want := range tests {
		if got := titleLabel(input); got != want {
			t.Errorf("titleLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable(tableSpec{
		Headers: []string{"Clip", "Kind", "Error"},
		Rows:    [][]string{{"train/dia1_utt0"}},
	})
	for _, want := range []string{"CLIP", "KIND", "ERROR", "train/dia1_utt0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(tableSpec{}) != "" {
		t.Fatal("expected empty output without headers")
	}
}
