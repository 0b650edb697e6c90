package ffprobe

import (
	"context"
	"math"
	"testing"
)

const samplePayload = `{
  "programs": [],
  "streams": [
    {"codec_name": "h264", "codec_type": "video", "r_frame_rate": "24000/1001", "avg_frame_rate": "24000/1001"},
    {"codec_name": "aac", "codec_type": "audio", "channels": 2, "r_frame_rate": "0/0", "avg_frame_rate": "0/0"}
  ],
  "format": {"duration": "4.304000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got, ok := result.DurationSeconds(); !ok || got != 4.304 {
		t.Fatalf("unexpected duration %v (ok=%v)", got, ok)
	}
	if got := result.FrameRate(); math.Abs(got-23.976) > 0.001 {
		t.Fatalf("unexpected frame rate %v", got)
	}
	if got := result.AudioChannels(); got != 2 {
		t.Fatalf("unexpected audio channels %d", got)
	}
	if video, ok := result.Stream("VIDEO"); !ok || video.CodecName != "h264" {
		t.Fatalf("unexpected video stream %+v", video)
	}
}

func TestResultHelpersHandleMissingData(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		duration bool
		fps      float64
		channels int
	}{
		{name: "empty", result: Result{}},
		{name: "garbage duration", result: Result{Format: Format{Duration: "N/A"}}},
		{name: "negative duration", result: Result{Format: Format{Duration: "-1"}}},
		{
			name:     "r_frame_rate fallback",
			result:   Result{Streams: []Stream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "30"}}, Format: Format{Duration: "1.5"}},
			duration: true,
			fps:      30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.result.DurationSeconds(); ok != tt.duration {
				t.Fatalf("duration ok = %v, want %v", ok, tt.duration)
			}
			if got := tt.result.FrameRate(); got != tt.fps {
				t.Fatalf("frame rate = %v, want %v", got, tt.fps)
			}
			if got := tt.result.AudioChannels(); got != tt.channels {
				t.Fatalf("channels = %d, want %d", got, tt.channels)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInspectRequiresPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
