package model

import (
	"math"
	"time"
)

// EventType tags the payload carried by an Event
type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
)

// Event is a single progress or log notification emitted by a job.
// Seq and JobID are stamped by the job's event channel.
type Event struct {
	Type    EventType
	Text    string
	Percent float64
	JobID   string
	Seq     uint64
	Time    time.Time
}

// LogLine builds a human-readable log event
func LogLine(text string) Event {
	return Event{Type: EventLog, Text: text}
}

// Progress builds a progress event, clamping percent into [0, 100]
func Progress(percent float64) Event {
	return Event{Type: EventProgress, Percent: ClampPercent(percent)}
}

// ClampPercent limits p to the closed range [0, 100]. NaN maps to 0.
func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Result is the outcome of one adapter invocation and, at job level, the
// terminal result delivered to the observer.
type Result struct {
	Success    bool
	Message    string
	OutputPath string // empty on failure
	Adapter    string
	Err        error
}

// Succeeded builds a successful result
func Succeeded(adapter, outputPath, message string) Result {
	return Result{Success: true, Adapter: adapter, OutputPath: outputPath, Message: message}
}

// Failed builds a failed result whose message is the error text
func Failed(adapter string, err error) Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Result{Adapter: adapter, Message: msg, Err: err}
}
