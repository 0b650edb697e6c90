// Package ffmpeg drives the ffmpeg binary for the two media operations the
// realigner needs: cutting a [start, end) range of a source clip into a
// segment, and splicing segments into a final clip.
//
// Both operations re-encode with one fixed Profile (H.264 video, stereo AAC
// audio at a fixed bitrate, fixed output frame rate). A single segment is
// relocated instead of re-encoded. Command execution goes through a
// replaceable runner so callers can test without ffmpeg installed.
package ffmpeg
