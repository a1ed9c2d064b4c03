package worker

import "errors"

var (
	// ErrRunnerNotRunning is returned when trying to enqueue a job on a stopped runner
	ErrRunnerNotRunning = errors.New("job runner is not running")

	// ErrQueueFull is returned when the job queue is full
	ErrQueueFull = errors.New("job queue is full")
)
