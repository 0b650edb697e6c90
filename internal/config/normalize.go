package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSplits(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeVerification()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RealignmentCSV) == "" {
		if value, ok := os.LookupEnv("REALIGNER_CSV"); ok {
			c.Paths.RealignmentCSV = strings.TrimSpace(value)
		}
	}
	if c.Paths.RealignmentCSV, err = expandPath(strings.TrimSpace(c.Paths.RealignmentCSV)); err != nil {
		return fmt.Errorf("paths.realignment_csv: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSplits() error {
	if len(c.Splits) == 0 {
		c.Splits = map[string]Split{}
		return nil
	}
	normalized := make(map[string]Split, len(c.Splits))
	for name, split := range c.Splits {
		key := strings.TrimSpace(name)
		if key == "" {
			continue
		}
		var err error
		if split.OriginalDir, err = expandPath(strings.TrimSpace(split.OriginalDir)); err != nil {
			return fmt.Errorf("splits.%s.original_dir: %w", key, err)
		}
		if split.RealignedDir, err = expandPath(strings.TrimSpace(split.RealignedDir)); err != nil {
			return fmt.Errorf("splits.%s.realigned_dir: %w", key, err)
		}
		split.AltFPSDialogues = dedupeInts(split.AltFPSDialogues)
		normalized[key] = split
	}
	c.Splits = normalized
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.FFmpegBinary = strings.TrimSpace(c.Encoding.FFmpegBinary)
	if c.Encoding.FFmpegBinary == "" {
		c.Encoding.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoding.FFprobeBinary = strings.TrimSpace(c.Encoding.FFprobeBinary)
	if c.Encoding.FFprobeBinary == "" {
		c.Encoding.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoding.VideoCodec = strings.TrimSpace(c.Encoding.VideoCodec)
	if c.Encoding.VideoCodec == "" {
		c.Encoding.VideoCodec = defaultVideoCodec
	}
	c.Encoding.AudioCodec = strings.TrimSpace(c.Encoding.AudioCodec)
	if c.Encoding.AudioCodec == "" {
		c.Encoding.AudioCodec = defaultAudioCodec
	}
	if c.Encoding.AudioChannels == 0 {
		c.Encoding.AudioChannels = defaultAudioChannels
	}
	c.Encoding.AudioBitrate = strings.ToLower(strings.TrimSpace(c.Encoding.AudioBitrate))
	if c.Encoding.AudioBitrate == "" {
		c.Encoding.AudioBitrate = defaultAudioBitrate
	}
	if c.Encoding.MainFPS == 0 {
		c.Encoding.MainFPS = defaultMainFPS
	}
	if c.Encoding.AltFPS == 0 {
		c.Encoding.AltFPS = defaultAltFPS
	}
}

func (c *Config) normalizeVerification() {
	if c.Verification.ToleranceSeconds == 0 {
		c.Verification.ToleranceSeconds = defaultVerificationTolerance
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func dedupeInts(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
