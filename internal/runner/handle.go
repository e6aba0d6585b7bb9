package runner

import (
	"context"
	"sync"

	"github.com/ytget/media-toolkit/internal/events"
	"github.com/ytget/media-toolkit/internal/model"
)

// Handle is the caller's reference to a submitted job.
type Handle struct {
	id      string
	channel *events.Channel

	mu     sync.RWMutex
	job    model.Job
	result model.Result

	once sync.Once
	done chan struct{}
}

func newHandle(job model.Job, channel *events.Channel) *Handle {
	return &Handle{
		id:      job.ID,
		channel: channel,
		job:     job,
		done:    make(chan struct{}),
	}
}

// ID returns the job ID.
func (h *Handle) ID() string {
	return h.id
}

// Job returns a snapshot of the job.
func (h *Handle) Job() model.Job {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.job
}

// Status returns the current job status.
func (h *Handle) Status() model.JobStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.job.Status
}

// Done is closed once the terminal result is recorded.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the terminal result and whether the job has finished.
func (h *Handle) Result() (model.Result, bool) {
	select {
	case <-h.done:
	default:
		return model.Result{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.result, true
}

// Wait blocks until the job finishes or ctx is done. Returning early does
// not stop the job.
func (h *Handle) Wait(ctx context.Context) (model.Result, error) {
	select {
	case <-h.done:
		res, _ := h.Result()
		return res, nil
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
}

// Attach registers an observer after submission. Events already queued are
// delivered first; if the job has finished, the terminal result follows.
func (h *Handle) Attach(obs events.Observer) error {
	return h.channel.Attach(obs)
}

// Delivered is closed once the observer has received the terminal result.
func (h *Handle) Delivered() <-chan struct{} {
	return h.channel.Delivered()
}

// DroppedEvents returns how many events were discarded under backpressure.
func (h *Handle) DroppedEvents() int {
	return h.channel.Dropped()
}

func (h *Handle) update(fn func(*model.Job)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.job)
}

func (h *Handle) transition(next model.JobStatus) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.job.Status.CanTransition(next) {
		return false
	}
	h.job.Status = next
	return true
}

// complete records res exactly once. It reports whether this call won.
func (h *Handle) complete(res model.Result) bool {
	won := false
	h.once.Do(func() {
		h.mu.Lock()
		h.result = res
		h.mu.Unlock()
		h.channel.Close(res)
		close(h.done)
		won = true
	})
	return won
}
