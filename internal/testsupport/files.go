package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"realigner/internal/config"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// CSVHeader is the realignment table header in its canonical column order.
const CSVHeader = "Split,Dialogue ID,Utterance ID,Original Dialogue ID,Original Utterance ID,Start Time,End Time"

// WriteCSV writes a realignment table with the canonical header followed by rows
// to the config's CSV path.
func WriteCSV(t testing.TB, cfg *config.Config, rows ...string) {
	t.Helper()

	content := CSVHeader + "\n"
	if len(rows) > 0 {
		content += strings.Join(rows, "\n") + "\n"
	}
	path := cfg.Paths.RealignmentCSV
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteOriginal creates a placeholder original clip dia{D}_utt{U}.mp4 for split.
func WriteOriginal(t testing.TB, cfg *config.Config, split string, dialogueID, utteranceID int) string {
	t.Helper()

	s, ok := cfg.Split(split)
	if !ok {
		t.Fatalf("split %q not configured", split)
	}
	path := filepath.Join(s.OriginalDir, fmt.Sprintf("dia%d_utt%d.mp4", dialogueID, utteranceID))
	WriteFile(t, path, 1024)
	return path
}
