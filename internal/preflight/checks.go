package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"realigner/internal/config"
	"realigner/internal/deps"
	"realigner/internal/timestamps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckDirectoryCreatable passes when path is a writable directory or when its
// nearest existing ancestor is writable, so the directory can be created later.
func CheckDirectoryCreatable(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		next := filepath.Dir(ancestor)
		if next == ancestor {
			break
		}
		ancestor = next
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes available.
// Missing paths are measured at their nearest existing ancestor.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	target := path
	for {
		if _, err := os.Stat(target); err == nil {
			break
		}
		next := filepath.Dir(target)
		if next == target {
			break
		}
		target = next
	}
	var st unix.Statfs_t
	if err := unix.Statfs(target, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", target, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s free, need %s)", target, humanize.IBytes(free), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s free)", target, humanize.IBytes(free))}
}

// CheckRealignmentTable verifies the CSV parses and every split it names is configured.
func CheckRealignmentTable(name string, cfg *config.Config) Result {
	path := cfg.Paths.RealignmentCSV
	if path == "" {
		return Result{Name: name, Detail: "paths.realignment_csv not set"}
	}
	table, err := timestamps.Load(path)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, pathErr.Err)}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	for _, split := range table.Splits() {
		if _, ok := cfg.Split(split); !ok {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: split %q is not configured)", path, split)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s rows, %s clips)",
		path, humanize.Comma(int64(len(table.Rows))), humanize.Comma(int64(len(table.Groups))))}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// ffprobe is optional when output verification is disabled.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for cutting and concatenating clips",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for output duration verification",
			Optional:    !cfg.Verification.Enabled,
			VersionArgs: []string{"-hide_banner", "-version"},
		},
	}
	return deps.CheckBinaries(ctx, requirements)
}
