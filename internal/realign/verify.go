package realign

import (
	"context"
	"math"

	"realigner/internal/media/ffprobe"
)

// probeOutput is the ffprobe function used to measure assembled clips.
// It is a package-level variable so tests can override it.
var probeOutput = ffprobe.Inspect

// SetProbeForTests overrides the ffprobe runner during tests.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	previous := probeOutput
	probeOutput = fn
	return func() {
		probeOutput = previous
	}
}

// Verification is the measured-versus-expected duration of an output clip.
type Verification struct {
	Performed bool
	Expected  float64
	Actual    float64
	// Allowed is the tolerated absolute deviation: one frame per segment plus slack.
	Allowed  float64
	Mismatch bool
	// FrameRate is the probed video frame rate, 0 when ffprobe did not report one.
	FrameRate float64
	// ProfileMismatch is set when the frame rate or audio channel count differs from the encoding profile.
	ProfileMismatch bool
}

// Delta returns Actual-Expected.
func (v Verification) Delta() float64 {
	return v.Actual - v.Expected
}

// frameRateTolerance absorbs rational rounding such as 24000/1001 against 23.976.
const frameRateTolerance = 0.01

func profileMatches(probe ffprobe.Result, fps float64, channels int) bool {
	if rate := probe.FrameRate(); rate > 0 && fps > 0 && math.Abs(rate-fps) > frameRateTolerance {
		return false
	}
	if got := probe.AudioChannels(); got > 0 && channels > 0 && got != channels {
		return false
	}
	return true
}

func allowedDeviation(segments int, fps, slack float64) float64 {
	if fps <= 0 {
		return slack
	}
	return float64(segments)/fps + slack
}

func compareDurations(expected, actual float64, segments int, fps, slack float64) Verification {
	allowed := allowedDeviation(segments, fps, slack)
	return Verification{
		Performed: true,
		Expected:  expected,
		Actual:    actual,
		Allowed:   allowed,
		Mismatch:  math.Abs(actual-expected) > allowed,
	}
}
