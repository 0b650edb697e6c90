package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// commandRunner executes an external command to completion.
type commandRunner func(ctx context.Context, name string, args ...string) error

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if detail := strings.TrimSpace(string(output)); detail != "" {
			return fmt.Errorf("%w: %s", err, lastLines(detail, 5))
		}
		return err
	}
	return nil
}

// lastLines keeps the tail of ffmpeg's stderr, where the actual failure is reported.
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
