package ffmpeg

import (
	"fmt"
	"strconv"

	"realigner/internal/config"
)

// Profile is the fixed encoding applied to every segment and assembled output.
type Profile struct {
	VideoCodec    string
	AudioCodec    string
	AudioChannels int
	AudioBitrate  string
}

// DefaultProfile returns libx264 video with 2-channel AAC at 127k.
func DefaultProfile() Profile {
	return Profile{
		VideoCodec:    "libx264",
		AudioCodec:    "aac",
		AudioChannels: 2,
		AudioBitrate:  "127k",
	}
}

// ProfileFromConfig builds the profile from the [encoding] section.
func ProfileFromConfig(cfg *config.Config) Profile {
	if cfg == nil {
		return DefaultProfile()
	}
	return Profile{
		VideoCodec:    cfg.Encoding.VideoCodec,
		AudioCodec:    cfg.Encoding.AudioCodec,
		AudioChannels: cfg.Encoding.AudioChannels,
		AudioBitrate:  cfg.Encoding.AudioBitrate,
	}
}

// outputArgs returns the encoder flags for an output at the given frame rate.
func (p Profile) outputArgs(fps float64) []string {
	return []string{
		"-c:v", p.VideoCodec,
		"-ac", strconv.Itoa(p.AudioChannels),
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		"-r", FormatFrameRate(fps),
	}
}

// FormatFrameRate renders a frame rate the way ffmpeg's -r flag accepts it.
func FormatFrameRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// FormatTimestamp renders seconds for -ss/-to without losing precision.
func FormatTimestamp(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func (p Profile) validate() error {
	if p.VideoCodec == "" || p.AudioCodec == "" || p.AudioBitrate == "" || p.AudioChannels <= 0 {
		return fmt.Errorf("incomplete encoding profile %+v", p)
	}
	return nil
}
