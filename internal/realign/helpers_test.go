package realign

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"realigner/internal/media/ffprobe"
)

// fakeFFmpeg records invocations and writes the output (last argument) unless told to fail.
type fakeFFmpeg struct {
	mu    sync.Mutex
	calls [][]string
	// failOn fails any call whose arguments contain the substring.
	failOn string
}

func (f *fakeFFmpeg) run(_ context.Context, _ string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(strings.Join(args, " "), f.failOn) {
		return errors.New("exit status 1")
	}
	return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
}

func (f *fakeFFmpeg) concatCalls() int {
	n := 0
	for _, call := range f.calls {
		if strings.Contains(strings.Join(call, " "), "-f concat") {
			n++
		}
	}
	return n
}

func (f *fakeFFmpeg) frameRates() []string {
	var rates []string
	for _, call := range f.calls {
		for i, arg := range call {
			if arg == "-r" && i+1 < len(call) {
				rates = append(rates, call[i+1])
			}
		}
	}
	return rates
}

// stubProbe reports a fixed duration for every output.
func stubProbe(t *testing.T, seconds float64) {
	t.Helper()
	restore := SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: strconv.FormatFloat(seconds, 'f', -1, 64)}}, nil
	})
	t.Cleanup(restore)
}
