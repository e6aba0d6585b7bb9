package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/media-toolkit/internal/model"
)

type recorder struct {
	mu      sync.Mutex
	events  []model.Event
	results []model.Result
	order   []string
}

func (r *recorder) OnEvent(ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.order = append(r.order, "event")
}

func (r *recorder) OnResult(res model.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	r.order = append(r.order, "result")
}

func waitDelivered(t *testing.T, c *Channel) {
	t.Helper()
	select {
	case <-c.Delivered():
	case <-time.After(2 * time.Second):
		t.Fatal("terminal result was not delivered")
	}
}

func TestChannel_PreservesOrderAndEndsWithResult(t *testing.T) {
	c := NewChannel("job-1", 0)
	rec := &recorder{}
	require.NoError(t, c.Attach(rec))

	for i := 0; i < 50; i++ {
		c.Progress(float64(i))
	}
	c.Log("done")
	require.True(t, c.Close(model.Succeeded("raster-image", "/tmp/out.png", "ok")))
	waitDelivered(t, c)

	require.Len(t, rec.events, 51)
	for i, ev := range rec.events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, "job-1", ev.JobID)
	}
	assert.Equal(t, "done", rec.events[50].Text)
	require.Len(t, rec.results, 1)
	assert.Equal(t, "result", rec.order[len(rec.order)-1])
}

func TestChannel_CloseOnlyOnce(t *testing.T) {
	c := NewChannel("job-1", 4)
	rec := &recorder{}

	assert.True(t, c.Close(model.Result{Success: true}))
	assert.False(t, c.Close(model.Result{Success: false}))
	c.Log("ignored after close")

	require.NoError(t, c.Attach(rec))
	waitDelivered(t, c)

	assert.Empty(t, rec.events)
	require.Len(t, rec.results, 1)
	assert.True(t, rec.results[0].Success)
}

func TestChannel_DropsOldestWithoutObserver(t *testing.T) {
	c := NewChannel("job-1", 3)
	for i := 1; i <= 5; i++ {
		c.Progress(float64(i * 10))
	}

	assert.Equal(t, 2, c.Dropped())
	assert.Equal(t, 3, c.Pending())

	rec := &recorder{}
	c.Close(model.Result{Success: true})
	require.NoError(t, c.Attach(rec))
	waitDelivered(t, c)

	require.Len(t, rec.events, 3)
	assert.Equal(t, 30.0, rec.events[0].Percent)
	assert.Equal(t, 50.0, rec.events[2].Percent)
	require.Len(t, rec.results, 1)
}

func TestChannel_EmitDoesNotBlockOnSlowObserver(t *testing.T) {
	c := NewChannel("job-1", 8)
	release := make(chan struct{})
	var got []model.Event
	var mu sync.Mutex
	obs := ObserverFuncs{
		Event: func(ev model.Event) {
			<-release
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		},
	}
	require.NoError(t, c.Attach(obs))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			c.Log("line")
		}
		c.Close(model.Result{Success: false, Message: "boom"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a stalled observer")
	}
	close(release)
	waitDelivered(t, c)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, len(got), 9)
	assert.Positive(t, c.Dropped())
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Seq, got[i].Seq)
	}
}

func TestChannel_SecondObserverRejected(t *testing.T) {
	c := NewChannel("job-1", 0)
	require.NoError(t, c.Attach(&recorder{}))
	assert.ErrorIs(t, c.Attach(&recorder{}), ErrObserverAttached)
	assert.Error(t, NewChannel("job-2", 0).Attach(nil))
}

func TestChannel_ObserverPanicIsContained(t *testing.T) {
	c := NewChannel("job-1", 0)
	var panics int
	var mu sync.Mutex
	c.PanicHandler = func(any) {
		mu.Lock()
		panics++
		mu.Unlock()
	}
	var result model.Result
	obs := ObserverFuncs{
		Event:  func(model.Event) { panic("observer bug") },
		Result: func(res model.Result) { result = res },
	}
	require.NoError(t, c.Attach(obs))

	c.Log("a")
	c.Log("b")
	c.Close(model.Result{Success: true, Message: "fine"})
	waitDelivered(t, c)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, panics)
	assert.Equal(t, "fine", result.Message)
}

func TestChannel_IndependentJobs(t *testing.T) {
	a := NewChannel("job-a", 0)
	b := NewChannel("job-b", 0)
	recA, recB := &recorder{}, &recorder{}
	require.NoError(t, a.Attach(recA))
	require.NoError(t, b.Attach(recB))

	a.Log("only a")
	a.Close(model.Result{Success: true})
	b.Close(model.Result{Success: false})
	waitDelivered(t, a)
	waitDelivered(t, b)

	require.Len(t, recA.events, 1)
	assert.Empty(t, recB.events)
	assert.True(t, recA.results[0].Success)
	assert.False(t, recB.results[0].Success)
}
