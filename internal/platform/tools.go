package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool executable names
const (
	FFmpegTool  = "ffmpeg"
	FFprobeTool = "ffprobe"
	YtDlpTool   = "yt-dlp"
	PandocTool  = "pandoc"
)

// ErrToolNotFound is returned when an executable cannot be located.
var ErrToolNotFound = errors.New("tool not found")

// LookPathFunc matches exec.LookPath; swapped in tests.
type LookPathFunc func(file string) (string, error)

// Resolver locates external executables, honoring explicit overrides.
type Resolver struct {
	LookPath LookPathFunc
	GOOS     string
}

// DefaultResolver searches PATH for the running OS.
var DefaultResolver = &Resolver{LookPath: exec.LookPath, GOOS: runtime.GOOS}

// ExecutableName appends .exe on Windows.
func (r *Resolver) ExecutableName(name string) string {
	if r.goos() == OSWindows && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// Resolve returns the path of tool. A non-empty override is used as-is when
// it names an existing file; otherwise PATH is searched.
func (r *Resolver) Resolve(tool, override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		if isFile(override) {
			return override, nil
		}
		return "", fmt.Errorf("%w: %s override %q does not exist", ErrToolNotFound, tool, override)
	}
	return r.lookPath(tool)
}

// ResolveInDir looks for tool inside dir (the ffmpeg folder convention) and
// falls back to PATH when dir is empty.
func (r *Resolver) ResolveInDir(tool, dir string) (string, error) {
	if dir = strings.TrimSpace(dir); dir != "" {
		candidate := filepath.Join(ExpandHome(dir), r.ExecutableName(tool))
		if isFile(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("%w: %s not in %q", ErrToolNotFound, tool, dir)
	}
	return r.lookPath(tool)
}

func (r *Resolver) lookPath(tool string) (string, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(r.ExecutableName(tool))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, tool, err)
	}
	return path, nil
}

func (r *Resolver) goos() string {
	if r.GOOS == "" {
		return runtime.GOOS
	}
	return r.GOOS
}

func isFile(path string) bool {
	info, err := os.Stat(ExpandHome(path))
	return err == nil && !info.IsDir()
}
