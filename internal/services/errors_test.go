package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExtraction, "collect", "cut segment", "dia1_utt2.mp4 -> video_0.mp4", cause)

	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected extraction marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	for _, part := range []string{"collect", "cut segment", "dia1_utt2.mp4"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("expected %q in %q", part, err.Error())
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrExtraction, "collect", "", "", nil), "extraction"},
		{Wrap(ErrAssembly, "assemble", "", "", nil), "assembly"},
		{Wrap(ErrValidation, "load", "", "", nil), "configuration"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := FailureKind(tt.err); got != tt.want {
			t.Errorf("FailureKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	ctx = WithRunID(ctx, "run-1")
	ctx = WithStage(ctx, "assemble")
	ctx = WithGroup(ctx, GroupRef{Split: "train", DialogueID: 5, UtteranceID: 2})

	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q", id)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "assemble" {
		t.Fatalf("unexpected stage %q", stage)
	}
	ref, ok := GroupFromContext(ctx)
	if !ok || ref.Split != "train" || ref.DialogueID != 5 || ref.UtteranceID != 2 {
		t.Fatalf("unexpected group %+v", ref)
	}
	if WithStage(ctx, "") != ctx {
		t.Fatal("expected empty stage to leave context untouched")
	}
}
