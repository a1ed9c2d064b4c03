package gangsheet

import "github.com/printnest/backend/internal/domain/shared"

const (
	EventTypeGangsheetJobCreated       = "gangsheet.job.created"
	EventTypeGangsheetJobStatusChanged = "gangsheet.job.status_changed"
	EventTypeGangsheetJobCompleted     = "gangsheet.job.completed"
	EventTypeGangsheetJobFailed        = "gangsheet.job.failed"
)

const aggregateTypeGangsheetJob = "GangsheetJob"

// GangsheetJobCreatedEvent is emitted when a job is created
type GangsheetJobCreatedEvent struct {
	shared.BaseDomainEvent
	Name       string `json:"name"`
	OrderCount int    `json:"order_count"`
}

// NewGangsheetJobCreatedEvent creates a new job created event
func NewGangsheetJobCreatedEvent(job *GangsheetJob) *GangsheetJobCreatedEvent {
	return &GangsheetJobCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeGangsheetJobCreated, aggregateTypeGangsheetJob, job.ID, job.TenantID),
		Name:       job.Name,
		OrderCount: len(job.OrderIDs),
	}
}

// GangsheetJobStatusChangedEvent is emitted on every status transition
type GangsheetJobStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus JobStatus `json:"old_status"`
	NewStatus JobStatus `json:"new_status"`
}

// NewGangsheetJobStatusChangedEvent creates a new status changed event
func NewGangsheetJobStatusChangedEvent(job *GangsheetJob, old JobStatus) *GangsheetJobStatusChangedEvent {
	return &GangsheetJobStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeGangsheetJobStatusChanged, aggregateTypeGangsheetJob, job.ID, job.TenantID),
		OldStatus: old,
		NewStatus: job.Status,
	}
}

// GangsheetJobCompletedEvent is emitted when the artifact is stored
type GangsheetJobCompletedEvent struct {
	shared.BaseDomainEvent
	ArtifactPath string `json:"artifact_path"`
	RollCount    int    `json:"roll_count"`
}

// NewGangsheetJobCompletedEvent creates a new job completed event
func NewGangsheetJobCompletedEvent(job *GangsheetJob) *GangsheetJobCompletedEvent {
	return &GangsheetJobCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeGangsheetJobCompleted, aggregateTypeGangsheetJob, job.ID, job.TenantID),
		ArtifactPath: job.ArtifactPath,
		RollCount:    job.RollCount(),
	}
}

// GangsheetJobFailedEvent is emitted when a job fails terminally
type GangsheetJobFailedEvent struct {
	shared.BaseDomainEvent
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// NewGangsheetJobFailedEvent creates a new job failed event
func NewGangsheetJobFailedEvent(job *GangsheetJob) *GangsheetJobFailedEvent {
	return &GangsheetJobFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeGangsheetJobFailed, aggregateTypeGangsheetJob, job.ID, job.TenantID),
		ErrorCode:    job.ErrorCode,
		ErrorMessage: job.ErrorMessage,
	}
}
