// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The realigner uses it to verify assembled clips: container duration, the
// frame rate of the video stream, and the audio channel layout produced by
// the fixed encoding profile.
package ffprobe
