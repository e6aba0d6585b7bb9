// Package app wires settings, logging, metrics, adapters and the job runner
// into one value shared by the desktop UI and the CLI.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/config"
	"github.com/ytget/media-toolkit/internal/dispatch"
	"github.com/ytget/media-toolkit/internal/document"
	"github.com/ytget/media-toolkit/internal/download"
	"github.com/ytget/media-toolkit/internal/imaging"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/metrics"
	"github.com/ytget/media-toolkit/internal/platform"
	"github.com/ytget/media-toolkit/internal/runner"
	"github.com/ytget/media-toolkit/internal/transcode"
)

const (
	AppID   = "com.ytget.media-toolkit"
	AppName = "Media Toolkit"
)

// Options control bootstrap.
type Options struct {
	// ConfigPath overrides the settings file location.
	ConfigPath string
	// Debug forces debug logging regardless of the configured level.
	Debug bool
	// Console selects human-readable log output.
	Console bool
	// Registry receives the Prometheus collectors; a fresh one when nil.
	Registry *prometheus.Registry
	// Resolver locates external tools; platform.DefaultResolver when nil.
	Resolver *platform.Resolver
	// Logger replaces the logger built from settings.
	Logger logger.Logger
	// PlaylistTimeout bounds playlist listing before a fetch;
	// platform.DefaultProbeTimeout when zero.
	PlaylistTimeout time.Duration
}

// App holds the wired services.
type App struct {
	Store     *config.Store
	Logger    logger.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Policy    *dispatch.Policy
	Runner    *runner.Runner
	Playlists *platform.PlaylistProbe
}

// New loads settings and builds every service. A malformed settings file is
// logged and replaced by defaults so the app still starts.
func New(opts Options) (*App, error) {
	store := config.NewStore(opts.ConfigPath)
	settings, loadErr := store.Load()

	log := opts.Logger
	if log == nil {
		level := settings.LogLevel
		if opts.Debug {
			level = "debug"
		}
		var err error
		log, err = logger.New(logger.Config{Level: level, Console: opts.Console})
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}
	if loadErr != nil {
		log.Warn("Using default settings", logger.Error(loadErr))
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	resolver := opts.Resolver
	if resolver == nil {
		resolver = platform.DefaultResolver
	}

	playlists := platform.NewPlaylistProbe()
	if opts.PlaylistTimeout > 0 {
		playlists.SetTimeout(opts.PlaylistTimeout)
	}

	policy, err := dispatch.New(
		download.New(log.With(logger.String("adapter", adapter.RemoteFetch.String())), resolver, playlists),
		imaging.New(log.With(logger.String("adapter", adapter.RasterImage.String()))),
		document.New(log.With(logger.String("adapter", adapter.Document.String())), resolver),
		transcode.New(log.With(logger.String("adapter", adapter.AudioVideo.String())), resolver),
		document.IsAllowedTarget,
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch policy: %w", err)
	}

	r := runner.New(policy, store,
		runner.WithLogger(log),
		runner.WithMetrics(m),
		runner.WithMaxParallel(settings.MaxParallelJobs),
	)

	log.Debug("Application initialized",
		logger.String("settings", store.Path()),
		logger.Int("max_parallel", settings.MaxParallelJobs),
		logger.Duration("playlist_timeout", playlists.Timeout()))

	return &App{
		Store:     store,
		Logger:    log,
		Registry:  reg,
		Metrics:   m,
		Policy:    policy,
		Runner:    r,
		Playlists: playlists,
	}, nil
}

// ToolStatus reports whether one adapter's backend can run.
type ToolStatus struct {
	Adapter adapter.ID
	Err     error
}

// OK reports whether the backend is usable.
func (s ToolStatus) OK() bool {
	return s.Err == nil
}

// Doctor checks every adapter against the current tool overrides.
func (a *App) Doctor() []ToolStatus {
	tools := a.Store.Settings().Tools()
	adapters := a.Policy.Adapters()
	out := make([]ToolStatus, 0, len(adapters))
	for _, ad := range adapters {
		out = append(out, ToolStatus{Adapter: ad.ID(), Err: ad.Available(tools)})
	}
	return out
}

// Summary renders Doctor results one adapter per line.
func Summary(statuses []ToolStatus) string {
	var b strings.Builder
	for _, s := range statuses {
		if s.OK() {
			fmt.Fprintf(&b, "✅ %s\n", s.Adapter)
		} else {
			fmt.Fprintf(&b, "❌ %s: %v\n", s.Adapter, s.Err)
		}
	}
	return b.String()
}

// Close waits for running jobs and flushes the logger.
func (a *App) Close() error {
	a.Runner.Wait()
	if err := a.Logger.Sync(); err != nil && !isStdSyncErr(err) {
		return err
	}
	return nil
}

// isStdSyncErr filters the EINVAL/ENOTTY zap reports when syncing a
// terminal.
func isStdSyncErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
