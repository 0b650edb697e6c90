package config

const (
	defaultLogDir                = "~/.local/share/realigner/logs"
	defaultLogRetentionDays      = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultVideoCodec            = "libx264"
	defaultAudioCodec            = "aac"
	defaultAudioChannels         = 2
	defaultAudioBitrate          = "127k"
	defaultMainFPS               = 23.976
	defaultAltFPS                = 29.97
	defaultVerificationTolerance = 0.05
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Splits: map[string]Split{},
		Encoding: Encoding{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			AudioChannels: defaultAudioChannels,
			AudioBitrate:  defaultAudioBitrate,
			MainFPS:       defaultMainFPS,
			AltFPS:        defaultAltFPS,
		},
		Verification: Verification{
			Enabled:          true,
			ToleranceSeconds: defaultVerificationTolerance,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
