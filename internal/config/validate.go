package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+[km]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSplits(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateVerification(); err != nil {
		return err
	}
	return nil
}

// ValidateForRun applies the stricter checks required before a realignment run.
func (c *Config) ValidateForRun() error {
	if strings.TrimSpace(c.Paths.RealignmentCSV) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/realigner/config.toml"
		}
		return fmt.Errorf("paths.realignment_csv is required. Set REALIGNER_CSV env var or edit %s (create with 'realigner config init')", defaultPath)
	}
	if len(c.Splits) == 0 {
		return errors.New("at least one [splits.<name>] section must be configured")
	}
	return nil
}

func (c *Config) validateSplits() error {
	for _, name := range c.SplitNames() {
		split := c.Splits[name]
		if strings.TrimSpace(split.OriginalDir) == "" {
			return fmt.Errorf("splits.%s.original_dir must be set", name)
		}
		if strings.TrimSpace(split.RealignedDir) == "" {
			return fmt.Errorf("splits.%s.realigned_dir must be set", name)
		}
		if split.OriginalDir == split.RealignedDir {
			return fmt.Errorf("splits.%s.realigned_dir must differ from original_dir", name)
		}
		for _, id := range split.AltFPSDialogues {
			if id < 0 {
				return fmt.Errorf("splits.%s.alt_fps_dialogues must not contain negative ids", name)
			}
		}
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.MainFPS <= 0 {
		return errors.New("encoding.main_fps must be positive")
	}
	if c.Encoding.AltFPS <= 0 {
		return errors.New("encoding.alt_fps must be positive")
	}
	if c.Encoding.AudioChannels <= 0 {
		return errors.New("encoding.audio_channels must be positive")
	}
	if !bitratePattern.MatchString(c.Encoding.AudioBitrate) {
		return fmt.Errorf("encoding.audio_bitrate %q must look like 127k", c.Encoding.AudioBitrate)
	}
	return nil
}

func (c *Config) validateVerification() error {
	if c.Verification.ToleranceSeconds < 0 {
		return errors.New("verification.tolerance_seconds must be >= 0")
	}
	return nil
}
