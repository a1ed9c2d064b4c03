package gangsheet

// JobStatus represents the status of a gangsheet generation job
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"    // created, waiting for a worker
	JobStatusProcessing JobStatus = "PROCESSING" // packing/rendering in progress
	JobStatusCompleted  JobStatus = "COMPLETED"  // artifact stored, ready for download
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure, see error message
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status.
// Transitions are append-only: a job never re-enters an earlier state.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusProcessing || target == JobStatusFailed
	case JobStatusProcessing:
		return target == JobStatusCompleted || target == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false // Terminal states
	}
	return false
}

// AllJobStatuses returns all valid JobStatus values
func AllJobStatuses() []JobStatus {
	return []JobStatus{
		JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed,
	}
}
