// Package transcode is the audio/video adapter: it hands any conversion to
// ffmpeg and turns ffmpeg's progress stream into job progress.
package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// FFmpeg invocation constants
const (
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:1"
	ProgressTimePrefix  = "out_time_us="
	ProgressEndLine     = "progress=end"
	ProbeTimeout        = 30 * time.Second
)

// CommandFunc matches exec.CommandContext.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Transcoder runs ffmpeg for arbitrary media conversions.
type Transcoder struct {
	resolver *platform.Resolver
	command  CommandFunc
	log      logger.Logger
}

// New creates a Transcoder. A nil resolver means platform.DefaultResolver.
func New(log logger.Logger, resolver *platform.Resolver) *Transcoder {
	if log == nil {
		log = logger.NewNop()
	}
	if resolver == nil {
		resolver = platform.DefaultResolver
	}
	return &Transcoder{
		resolver: resolver,
		command:  exec.CommandContext,
		log:      log,
	}
}

func (t *Transcoder) ID() adapter.ID {
	return adapter.AudioVideo
}

// Capable is true for every pair: ffmpeg is the universal fallback.
func (t *Transcoder) Capable(model.Category, string) bool {
	return true
}

// Available checks that ffmpeg can be located.
func (t *Transcoder) Available(tools model.Tools) error {
	_, err := t.ffmpeg(tools)
	return err
}

func (t *Transcoder) ffmpeg(tools model.Tools) (string, error) {
	path, err := t.resolver.ResolveInDir(platform.FFmpegTool, tools.FFmpegDir)
	if err != nil {
		return "", model.Unavailable(adapter.AudioVideo.String(), platform.FFmpegTool, err)
	}
	return path, nil
}

// Run converts req.Input into req.Output.
func (t *Transcoder) Run(ctx context.Context, req adapter.Request, sink adapter.Sink) model.Result {
	id := t.ID().String()

	ffmpeg, err := t.ffmpeg(req.Options.Tools)
	if err != nil {
		return model.Failed(id, err)
	}

	duration, err := t.probeDuration(ctx, req.Input, req.Options.Tools)
	if err != nil {
		// Conversion still works; progress just stays indeterminate.
		t.log.Debug("ffprobe duration unavailable",
			logger.String("job_id", req.JobID), logger.Error(err))
	}

	args := BuildFFmpegArgs(req.Input, req.Output)
	cmd := t.command(ctx, ffmpeg, args...)
	stderr := adapter.NewTail(adapter.DefaultTailLines)
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return model.Failed(id, model.ExecutionFailed(id, "failed to create stdout pipe", "", err))
	}

	t.log.Debug("starting ffmpeg",
		logger.String("job_id", req.JobID), logger.String("path", ffmpeg), logger.Strings("args", args))

	if err := cmd.Start(); err != nil {
		return model.Failed(id, model.ExecutionFailed(id, "failed to start ffmpeg", "", err))
	}

	// Wait closes the pipe, so progress must be drained first.
	monitorProgress(stdout, duration, sink)
	err = cmd.Wait()

	if err != nil {
		_ = os.Remove(req.Output)
		msg := "ffmpeg failed"
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg = fmt.Sprintf("ffmpeg exited with code %d", exitErr.ExitCode())
		}
		return model.Failed(id, model.ExecutionFailed(id, msg, stderr.String(), err))
	}

	if info, statErr := os.Stat(req.Output); statErr != nil || info.Size() == 0 {
		_ = os.Remove(req.Output)
		return model.Failed(id, model.ExecutionFailed(id, "ffmpeg produced no output", stderr.String(), statErr))
	}

	return model.Succeeded(id, req.Output, fmt.Sprintf("Converted to %s", req.Output))
}

// BuildFFmpegArgs builds the ffmpeg command arguments. Container and codecs
// follow from the output extension.
func BuildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y", // Overwrite output file
		"-i", inputPath,
		"-progress", ProgressPipeTarget, // key=value progress to stdout
		"-nostats",
		outputPath,
	}
}

// probeDuration returns the media duration in seconds using ffprobe from
// the same folder as ffmpeg.
func (t *Transcoder) probeDuration(ctx context.Context, inputPath string, tools model.Tools) (float64, error) {
	ffprobe, err := t.resolver.ResolveInDir(platform.FFprobeTool, tools.FFmpegDir)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	cmd := t.command(ctx, ffprobe,
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		inputPath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return parseDuration(string(output))
}

func parseDuration(s string) (float64, error) {
	duration, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", duration)
	}
	return duration, nil
}

// monitorProgress reads ffmpeg -progress output until EOF.
func monitorProgress(r io.Reader, totalDuration float64, sink adapter.Sink) {
	scanner := bufio.NewScanner(r)
	last := -1

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == ProgressEndLine {
			continue
		}
		// Parse progress line: out_time_us=123456
		if !strings.HasPrefix(line, ProgressTimePrefix) || totalDuration <= 0 {
			continue
		}
		timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
		if err != nil || timeMicroseconds < 0 {
			continue
		}

		percent := float64(timeMicroseconds) / 1e6 / totalDuration * 100
		if percent > 100 {
			percent = 100
		}
		if int(percent) == last {
			continue
		}
		last = int(percent)
		sink.Progress(percent)
	}
	// Drain so ffmpeg never blocks on a full pipe after a scan error.
	_, _ = io.Copy(io.Discard, r)
}
