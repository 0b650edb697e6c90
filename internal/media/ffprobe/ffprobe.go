package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// showEntries limits the probe to the fields output verification reads.
const showEntries = "format=duration,format_name:stream=codec_type,codec_name,avg_frame_rate,r_frame_rate,channels"

// Result is the subset of ffprobe's JSON report used to verify an output clip.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream of the container.
type Stream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Channels     int    `json:"channels"`
}

// Format holds container-level fields.
type Format struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect runs ffprobe against path and decodes its JSON report.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_entries", showEntries, "-of", "json", "--", path) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	return Parse(output)
}

// Parse decodes a raw ffprobe JSON payload.
func Parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// DurationSeconds returns the container duration. ok is false when ffprobe
// reported no usable duration.
func (r Result) DurationSeconds() (seconds float64, ok bool) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

// Stream returns the first stream of the given codec type ("video" or "audio").
func (r Result) Stream(codecType string) (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			return stream, true
		}
	}
	return Stream{}, false
}

// FrameRate returns the video frame rate, preferring avg_frame_rate over
// r_frame_rate, or 0 when unknown.
func (r Result) FrameRate() float64 {
	video, ok := r.Stream("video")
	if !ok {
		return 0
	}
	if rate := parseRational(video.AvgFrameRate); rate > 0 {
		return rate
	}
	return parseRational(video.RFrameRate)
}

// AudioChannels returns the channel count of the first audio stream, or 0 without audio.
func (r Result) AudioChannels() int {
	audio, ok := r.Stream("audio")
	if !ok {
		return 0
	}
	return audio.Channels
}

func parseRational(value string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(value), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
