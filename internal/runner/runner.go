// Package runner executes fetch and convert jobs. Each job runs on its own
// goroutine, reports through its own event channel and finishes with
// exactly one terminal result. A failing or panicking adapter never affects
// other jobs or the caller.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/classify"
	"github.com/ytget/media-toolkit/internal/config"
	"github.com/ytget/media-toolkit/internal/dispatch"
	"github.com/ytget/media-toolkit/internal/events"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/metrics"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// MaxAdapterProgress caps progress reported while adapters run; 100 is
// reserved for the success event.
const MaxAdapterProgress = 99

// Outcome labels for adapter attempts
const (
	outcomeSuccess     = "success"
	outcomeUnavailable = "unavailable"
	outcomeFailed      = "failed"
	outcomePanic       = "panic"
)

// Policy resolves adapter chains.
type Policy interface {
	Resolve(cat model.Category, target string, tools model.Tools) dispatch.Chain
	ResolveFetch() dispatch.Chain
}

// Runner accepts jobs and executes them concurrently.
type Runner struct {
	policy   Policy
	settings config.Provider

	log           logger.Logger
	metrics       *metrics.Metrics
	eventCapacity int
	slots         chan struct{}
	now           func() time.Time
	newID         func() string
	classify      func(string) model.Category

	mu   sync.RWMutex
	jobs map[string]*Handle
	wg   sync.WaitGroup
}

// New creates a runner. settings is read once per submission.
func New(policy Policy, settings config.Provider, opts ...Option) *Runner {
	if settings == nil {
		settings = config.Static(config.Defaults())
	}
	r := &Runner{
		policy:        policy,
		settings:      settings,
		log:           logger.NewNop(),
		eventCapacity: events.DefaultCapacity,
		now:           time.Now,
		newID:         generateJobID,
		classify:      classify.Classify,
		jobs:          make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubmitFetch validates req and starts a fetch job. Invalid requests return
// an error matching model.ErrInvalidInput and create no job.
func (r *Runner) SubmitFetch(req FetchRequest, opts ...SubmitOption) (*Handle, error) {
	job, err := r.buildFetchJob(req, r.settings.Settings())
	if err != nil {
		return nil, err
	}
	return r.submit(job, opts)
}

// SubmitConvert validates req and starts a conversion job.
func (r *Runner) SubmitConvert(req ConvertRequest, opts ...SubmitOption) (*Handle, error) {
	job, err := r.buildConvertJob(req, r.settings.Settings())
	if err != nil {
		return nil, err
	}
	return r.submit(job, opts)
}

func (r *Runner) submit(job *model.Job, opts []SubmitOption) (*Handle, error) {
	var cfg submitConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	job.ID = r.newID()
	job.Status = model.JobStatusPending
	job.CreatedAt = r.now()

	channel := events.NewChannel(job.ID, r.eventCapacity)
	channel.PanicHandler = func(recovered any) {
		r.log.Error("Observer panicked",
			logger.String("job_id", job.ID),
			logger.Any("panic", recovered))
	}
	h := newHandle(*job, channel)
	if cfg.observer != nil {
		if err := channel.Attach(cfg.observer); err != nil {
			return nil, fmt.Errorf("attach observer: %w", err)
		}
	}

	r.mu.Lock()
	r.jobs[job.ID] = h
	r.mu.Unlock()
	r.wg.Add(1)

	r.metrics.JobSubmitted(job.Kind.String())
	r.log.Info("Job submitted",
		logger.String("job_id", job.ID),
		logger.String("kind", job.Kind.String()),
		logger.String("source", job.Source),
		logger.String("target", job.Target))

	go r.execute(h)
	return h, nil
}

// Get returns the handle of a job that has not finished yet.
func (r *Runner) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.jobs[id]
	return h, ok
}

// Active returns the unfinished jobs ordered by creation time.
func (r *Runner) Active() []model.Job {
	r.mu.RLock()
	jobs := make([]model.Job, 0, len(r.jobs))
	for _, h := range r.jobs {
		jobs = append(jobs, h.Job())
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(h *Handle) {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Job panicked",
				logger.String("job_id", h.ID()),
				logger.Any("panic", rec))
			r.finish(h, model.Failed("", model.Exhausted(
				model.ExecutionFailed("", fmt.Sprintf("job panicked: %v", rec), "", nil))))
		}
	}()

	r.acquire()
	defer r.release()

	if !h.transition(model.JobStatusRunning) {
		return
	}
	started := r.now()
	h.update(func(j *model.Job) { j.StartedAt = started })
	r.metrics.JobStarted()

	job := h.Job()
	sink := &jobSink{channel: h.channel}
	chain := r.resolve(h, job)

	if err := platform.CreateDirectoryIfNotExists(job.Options.OutputDir); err != nil {
		r.finish(h, model.Failed("", model.Exhausted(
			model.ExecutionFailed("", "cannot create output folder", "", err))))
		return
	}

	r.finish(h, r.runChain(h.ID(), job, chain, sink))
}

func (r *Runner) resolve(h *Handle, job model.Job) dispatch.Chain {
	if job.Kind == model.JobKindFetch {
		return r.policy.ResolveFetch()
	}
	cat := r.classify(job.Source)
	h.update(func(j *model.Job) { j.Category = cat })
	chain := r.policy.Resolve(cat, job.Target, job.Options.Tools)
	r.log.Debug("Resolved adapter chain",
		logger.String("job_id", job.ID),
		logger.String("category", cat.String()),
		logger.Any("chain", chain.IDs()))
	return chain
}

// runChain tries each adapter in order and stops at the first success.
func (r *Runner) runChain(jobID string, job model.Job, chain dispatch.Chain, sink *jobSink) model.Result {
	if len(chain) == 0 {
		return model.Failed("", model.Exhausted(
			model.ExecutionFailed("", "no adapter can handle this job", "", nil)))
	}

	req := adapter.Request{
		JobID:     jobID,
		Input:     job.Source,
		OutputDir: job.Options.OutputDir,
		Target:    job.Target,
		Options:   job.Options,
	}
	if job.Kind == model.JobKindConvert {
		req.Output = job.OutputPath
	}

	var last model.Result
	for _, a := range chain {
		sink.Log(startLine(job, a.ID()))
		last = r.attempt(a, req, sink)
		if last.Success {
			return last
		}
		r.log.Warn("Adapter failed",
			logger.String("job_id", jobID),
			logger.String("adapter", a.ID().String()),
			logger.Error(last.Err))
	}

	cause := last.Err
	if cause == nil {
		cause = model.ExecutionFailed(last.Adapter, last.Message, "", nil)
	}
	return model.Failed(last.Adapter, model.Exhausted(cause))
}

// attempt runs one adapter, converting panics into a failed result.
func (r *Runner) attempt(a adapter.Adapter, req adapter.Request, sink *jobSink) (res model.Result) {
	id := a.ID().String()
	began := r.now()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Adapter panicked",
				logger.String("job_id", req.JobID),
				logger.String("adapter", id),
				logger.Any("panic", rec))
			res = model.Failed(id, model.ExecutionFailed(id, fmt.Sprintf("panic: %v", rec), "", nil))
			r.metrics.AdapterAttempt(id, outcomePanic, r.now().Sub(began))
			return
		}
		r.metrics.AdapterAttempt(id, outcomeOf(res), r.now().Sub(began))
	}()

	if err := a.Available(req.Options.Tools); err != nil {
		return model.Failed(id, err)
	}
	res = a.Run(context.Background(), req, sink)
	if res.Adapter == "" {
		res.Adapter = id
	}
	if !res.Success && res.Err == nil {
		res.Err = model.ExecutionFailed(id, res.Message, "", nil)
	}
	return res
}

func outcomeOf(res model.Result) string {
	switch {
	case res.Success:
		return outcomeSuccess
	case errors.Is(res.Err, model.ErrCapabilityUnavailable):
		return outcomeUnavailable
	default:
		return outcomeFailed
	}
}

// finish emits the closing events, records the terminal result once and
// removes the job from the registry.
func (r *Runner) finish(h *Handle, res model.Result) {
	job := h.Job()
	status := model.JobStatusFailed
	if res.Success {
		status = model.JobStatusSucceeded
	}
	if job.Status == model.JobStatusPending {
		h.transition(model.JobStatusRunning)
	}
	if !h.transition(status) {
		return
	}

	finished := r.now()
	h.update(func(j *model.Job) {
		j.FinishedAt = finished
		if res.Success && res.OutputPath != "" {
			j.OutputPath = res.OutputPath
		}
		if !res.Success && j.Kind == model.JobKindFetch {
			j.OutputPath = ""
		}
	})

	if res.Success {
		res.Message = successMessage(job)
		h.channel.Progress(100)
		h.channel.Log("✅ " + successLine(job, res))
	} else {
		res.OutputPath = ""
		h.channel.Log("❌ " + failureLine(job, res.Err))
		h.channel.Progress(0)
	}

	if !h.complete(res) {
		return
	}
	r.metrics.EventsDropped(h.channel.Dropped())

	r.mu.Lock()
	delete(r.jobs, h.ID())
	r.mu.Unlock()

	var elapsed time.Duration
	if !job.StartedAt.IsZero() {
		elapsed = finished.Sub(job.StartedAt)
	}
	r.metrics.JobFinished(job.Kind.String(), status.String(), elapsed)

	fields := []logger.Field{
		logger.String("job_id", h.ID()),
		logger.String("kind", job.Kind.String()),
		logger.String("adapter", res.Adapter),
		logger.Duration("elapsed", elapsed),
	}
	if res.Success {
		r.log.Info("Job succeeded", append(fields, logger.String("output", res.OutputPath))...)
	} else {
		r.log.Error("Job failed", append(fields, logger.Error(res.Err))...)
	}
}

func startLine(job model.Job, id adapter.ID) string {
	if job.Kind == model.JobKindFetch {
		return fmt.Sprintf("Starting download: %s (%s)", job.Source, id)
	}
	return fmt.Sprintf("Converting %s to %s (%s)", filepath.Base(job.Source), job.Target, id)
}

func successMessage(job model.Job) string {
	if job.Kind == model.JobKindFetch {
		return "Download complete: " + job.Source
	}
	return "Converted to " + job.Target
}

func successLine(job model.Job, res model.Result) string {
	if job.Kind == model.JobKindFetch {
		return "Download complete: " + job.Source
	}
	return "Converted: " + res.OutputPath
}

func failureLine(job model.Job, err error) string {
	if job.Kind == model.JobKindFetch {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Conversion error: %v", err)
}

func (r *Runner) acquire() {
	if r.slots != nil {
		r.slots <- struct{}{}
	}
}

func (r *Runner) release() {
	if r.slots != nil {
		<-r.slots
	}
}

// jobSink forwards adapter output to the job's channel and keeps progress
// below 100.
type jobSink struct {
	channel *events.Channel
}

func (s *jobSink) Log(line string) {
	s.channel.Log(line)
}

func (s *jobSink) Progress(percent float64) {
	s.channel.Progress(math.Min(model.ClampPercent(percent), MaxAdapterProgress))
}
