// Package adapter defines the contract between the job runner and the
// external processing backends.
package adapter

import (
	"context"

	"github.com/ytget/media-toolkit/internal/model"
)

// ID names an adapter in logs, metrics and results.
type ID string

const (
	RemoteFetch ID = "remote-fetch"
	RasterImage ID = "raster-image"
	Document    ID = "document"
	AudioVideo  ID = "audio-video"
)

func (id ID) String() string {
	return string(id)
}

// Request describes one adapter invocation.
type Request struct {
	JobID string
	// Input is the source URL (fetch) or local path (convert).
	Input string
	// Output is the full destination path for conversions. Fetchers leave it
	// empty and name files from upstream metadata inside OutputDir.
	Output    string
	OutputDir string
	Target    string
	Options   model.Options
}

// Sink is how an adapter reports to its job. Calls never block.
type Sink interface {
	Log(line string)
	Progress(percent float64)
}

// Adapter wraps one external backend.
type Adapter interface {
	ID() ID
	// Available returns nil when the backend can run with the given tool
	// overrides, or an error matching model.ErrCapabilityUnavailable.
	Available(tools model.Tools) error
	// Capable reports whether the adapter handles this category/target pair.
	Capable(cat model.Category, target string) bool
	// Run performs the work. Every failure is reported through the returned
	// Result; Run must not panic on bad input.
	Run(ctx context.Context, req Request, sink Sink) model.Result
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(string)       {}
func (discard) Progress(float64) {}
