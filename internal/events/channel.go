// Package events implements the per-job event channel: an ordered,
// non-blocking pipe from a running job to at most one observer.
package events

import (
	"errors"
	"sync"
	"time"

	"github.com/ytget/media-toolkit/internal/model"
)

// DefaultCapacity bounds the number of undelivered events per job.
const DefaultCapacity = 256

// ErrObserverAttached is returned when a second observer is attached.
var ErrObserverAttached = errors.New("observer already attached")

// Observer receives a job's events in emission order followed by exactly
// one terminal result.
type Observer interface {
	OnEvent(model.Event)
	OnResult(model.Result)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Event  func(model.Event)
	Result func(model.Result)
}

func (o ObserverFuncs) OnEvent(ev model.Event) {
	if o.Event != nil {
		o.Event(ev)
	}
}

func (o ObserverFuncs) OnResult(res model.Result) {
	if o.Result != nil {
		o.Result(res)
	}
}

// Channel queues events for one job. Emit never blocks: when the queue is
// full the oldest undelivered event is discarded. The terminal result set by
// Close is never discarded and is always delivered last.
type Channel struct {
	jobID    string
	capacity int

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []model.Event
	seq       uint64
	dropped   int
	observer  Observer
	result    *model.Result
	delivered chan struct{}

	// PanicHandler is invoked when the observer panics. Set before Attach.
	PanicHandler func(recovered any)
	now          func() time.Time
}

// NewChannel creates a channel for jobID. capacity <= 0 selects
// DefaultCapacity.
func NewChannel(jobID string, capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Channel{
		jobID:     jobID,
		capacity:  capacity,
		queue:     make([]model.Event, 0, capacity),
		delivered: make(chan struct{}),
		now:       time.Now,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Emit stamps ev with the job ID, a sequence number and a timestamp, then
// queues it. Events emitted after Close are ignored.
func (c *Channel) Emit(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result != nil {
		return
	}
	c.seq++
	ev.JobID = c.jobID
	ev.Seq = c.seq
	if ev.Time.IsZero() {
		ev.Time = c.now()
	}

	if len(c.queue) >= c.capacity {
		// Shift instead of reslicing so the backing array does not creep.
		copy(c.queue, c.queue[1:])
		c.queue = c.queue[:len(c.queue)-1]
		c.dropped++
	}
	c.queue = append(c.queue, ev)
	c.cond.Signal()
}

// Log is shorthand for Emit(model.LogLine(text)).
func (c *Channel) Log(text string) {
	c.Emit(model.LogLine(text))
}

// Progress is shorthand for Emit(model.Progress(percent)).
func (c *Channel) Progress(percent float64) {
	c.Emit(model.Progress(percent))
}

// Close records the terminal result. It returns false if a result was
// already recorded; the first one wins.
func (c *Channel) Close(res model.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result != nil {
		return false
	}
	c.result = &res
	c.cond.Signal()
	return true
}

// Attach registers the single observer and starts delivery. Events queued
// before Attach are delivered first, in order.
func (c *Channel) Attach(obs Observer) error {
	if obs == nil {
		return errors.New("observer is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.observer != nil {
		return ErrObserverAttached
	}
	c.observer = obs
	go c.deliver(obs)
	return nil
}

// Delivered is closed once the terminal result has been handed to the
// observer. It never closes for a channel without an observer.
func (c *Channel) Delivered() <-chan struct{} {
	return c.delivered
}

// Dropped returns how many events were discarded under backpressure.
func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Pending returns the number of queued, undelivered events.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Channel) deliver(obs Observer) {
	defer close(c.delivered)

	for {
		c.mu.Lock()
		for len(c.queue) == 0 && c.result == nil {
			c.cond.Wait()
		}
		if len(c.queue) > 0 {
			ev := c.queue[0]
			copy(c.queue, c.queue[1:])
			c.queue = c.queue[:len(c.queue)-1]
			c.mu.Unlock()

			c.safely(func() { obs.OnEvent(ev) })
			continue
		}
		res := *c.result
		c.mu.Unlock()

		c.safely(func() { obs.OnResult(res) })
		return
	}
}

func (c *Channel) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil && c.PanicHandler != nil {
			c.PanicHandler(r)
		}
	}()
	fn()
}
