package model

// JobStatus represents the lifecycle state of a fetch or convert job
type JobStatus string

const (
	// JobStatusPending means the job was accepted but has not started
	JobStatusPending JobStatus = "Pending"

	// JobStatusRunning means an adapter chain is executing for the job
	JobStatusRunning JobStatus = "Running"

	// JobStatusSucceeded means an adapter produced the requested output
	JobStatusSucceeded JobStatus = "Succeeded"

	// JobStatusFailed means every adapter in the chain failed
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is currently executing
func (js JobStatus) IsActive() bool {
	return js == JobStatusRunning
}

// IsFinished returns true if the job reached a terminal state
func (js JobStatus) IsFinished() bool {
	return js == JobStatusSucceeded || js == JobStatusFailed
}

// CanTransition reports whether moving from js to next is allowed.
// Pending -> Running -> (Succeeded | Failed); terminal states are final.
func (js JobStatus) CanTransition(next JobStatus) bool {
	switch js {
	case JobStatusPending:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusSucceeded || next == JobStatusFailed
	default:
		return false
	}
}

// JobKind distinguishes remote fetches from local conversions
type JobKind string

const (
	JobKindFetch   JobKind = "fetch"
	JobKindConvert JobKind = "convert"
)

func (k JobKind) String() string {
	return string(k)
}
