// Package document is the pandoc-backed document conversion adapter.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// AllowedTargets is the fixed set of formats routed to pandoc.
var AllowedTargets = []string{"pdf", "docx", "txt", "md", "rtf"}

// Pandoc writer names for targets whose name differs from the format.
// pdf has no writer; pandoc infers it from the output extension.
var writers = map[string]string{
	"txt":  "plain",
	"md":   "markdown",
	"docx": "docx",
	"rtf":  "rtf",
}

// CommandFunc matches exec.CommandContext.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Converter runs pandoc.
type Converter struct {
	resolver *platform.Resolver
	command  CommandFunc
	log      logger.Logger
}

// New creates a Converter. A nil resolver means platform.DefaultResolver.
func New(log logger.Logger, resolver *platform.Resolver) *Converter {
	if log == nil {
		log = logger.NewNop()
	}
	if resolver == nil {
		resolver = platform.DefaultResolver
	}
	return &Converter{resolver: resolver, command: exec.CommandContext, log: log}
}

func (c *Converter) ID() adapter.ID {
	return adapter.Document
}

// IsAllowedTarget reports whether target is in AllowedTargets.
func IsAllowedTarget(target string) bool {
	return slices.Contains(AllowedTargets, target)
}

// Capable accepts any source category for an allow-listed target. Whether
// pandoc is installed is answered by Available.
func (c *Converter) Capable(_ model.Category, target string) bool {
	return IsAllowedTarget(target)
}

// Available checks that pandoc can be located.
func (c *Converter) Available(tools model.Tools) error {
	_, err := c.pandoc(tools)
	return err
}

func (c *Converter) pandoc(tools model.Tools) (string, error) {
	path, err := c.resolver.Resolve(platform.PandocTool, tools.PandocPath)
	if err != nil {
		return "", model.Unavailable(adapter.Document.String(), platform.PandocTool, err)
	}
	return path, nil
}

// BuildPandocArgs builds the pandoc arguments for one conversion.
func BuildPandocArgs(inputPath, outputPath, target string) []string {
	args := []string{inputPath}
	if w, ok := writers[target]; ok {
		args = append(args, "-t", w)
	}
	args = append(args, "-s", "-o", outputPath)
	return args
}

// Run converts req.Input into req.Output with pandoc.
func (c *Converter) Run(ctx context.Context, req adapter.Request, sink adapter.Sink) model.Result {
	id := c.ID().String()

	if !IsAllowedTarget(req.Target) {
		return model.Failed(id, model.ExecutionFailed(id, fmt.Sprintf("unsupported target %q", req.Target), "", nil))
	}
	pandoc, err := c.pandoc(req.Options.Tools)
	if err != nil {
		return model.Failed(id, err)
	}

	args := BuildPandocArgs(req.Input, req.Output, req.Target)
	cmd := c.command(ctx, pandoc, args...)
	stderr := adapter.NewTail(adapter.DefaultTailLines)
	cmd.Stderr = stderr

	c.log.Debug("starting pandoc",
		logger.String("job_id", req.JobID), logger.String("path", pandoc), logger.Strings("args", args))
	sink.Progress(10)

	if err := cmd.Run(); err != nil {
		_ = os.Remove(req.Output)
		msg := "pandoc failed"
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg = fmt.Sprintf("pandoc exited with code %d", exitErr.ExitCode())
		}
		return model.Failed(id, model.ExecutionFailed(id, msg, stderr.String(), err))
	}

	if _, err := os.Stat(req.Output); err != nil {
		return model.Failed(id, model.ExecutionFailed(id, "pandoc produced no output", stderr.String(), err))
	}
	return model.Succeeded(id, req.Output, fmt.Sprintf("Converted to %s", req.Output))
}
