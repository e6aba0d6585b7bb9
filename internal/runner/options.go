package runner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/media-toolkit/internal/events"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/metrics"
	"github.com/ytget/media-toolkit/internal/model"
)

// JobIDPrefix is prepended to every generated job ID.
const JobIDPrefix = "job-"

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithEventCapacity bounds each job's undelivered event queue.
func WithEventCapacity(n int) Option {
	return func(r *Runner) {
		r.eventCapacity = n
	}
}

// WithMaxParallel limits how many jobs execute at once. Zero or less means
// unlimited; extra jobs stay Pending until a slot frees up.
func WithMaxParallel(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.slots = make(chan struct{}, n)
		} else {
			r.slots = nil
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator replaces the job ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Runner) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithClassifier replaces the content classifier used for conversions.
func WithClassifier(fn func(string) model.Category) Option {
	return func(r *Runner) {
		if fn != nil {
			r.classify = fn
		}
	}
}

// SubmitOption configures a single submission.
type SubmitOption func(*submitConfig)

type submitConfig struct {
	observer events.Observer
}

// WithObserver attaches obs to the job before any event is emitted.
func WithObserver(obs events.Observer) SubmitOption {
	return func(c *submitConfig) {
		c.observer = obs
	}
}

// generateJobID returns a time-ordered UUID v7 based ID.
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(JobIDPrefix+"%d", time.Now().UnixNano())
	}
	return JobIDPrefix + id.String()
}
