package gangsheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/shared"
)

// GangsheetJob is the aggregate root for one generation run. It snapshots
// the tenant's roll settings at creation and walks the status machine
// PENDING -> PROCESSING -> COMPLETED | FAILED.
type GangsheetJob struct {
	shared.TenantAggregateRoot
	Name         string
	OrderIDs     []uuid.UUID
	Settings     RollSettings // immutable snapshot
	Status       JobStatus
	Rolls        []Roll // packed layout, populated during processing
	ArtifactPath string // storage key of the zip, set on completion
	ErrorCode    string
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// NewGangsheetJob creates a pending job for the given orders
func NewGangsheetJob(tenantID uuid.UUID, name string, orderIDs []uuid.UUID, settings RollSettings) (*GangsheetJob, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Job name cannot be empty")
	}
	if len(name) > 120 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Job name cannot exceed 120 characters")
	}
	if len(orderIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one order is required")
	}
	seen := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		if id == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Order ID cannot be empty")
		}
		if seen[id] {
			return nil, shared.NewDomainError("INVALID_INPUT", "Duplicate order ID in request")
		}
		seen[id] = true
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	job := &GangsheetJob{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		OrderIDs:            orderIDs,
		Settings:            settings,
		Status:              JobStatusPending,
	}
	job.AddDomainEvent(NewGangsheetJobCreatedEvent(job))
	return job, nil
}

// StartProcessing moves the job to PROCESSING and stamps the start time
func (j *GangsheetJob) StartProcessing() error {
	if err := j.transition(JobStatusProcessing); err != nil {
		return err
	}
	now := time.Now()
	j.StartedAt = &now
	return nil
}

// SetLayout records the packed rolls while the job is processing
func (j *GangsheetJob) SetLayout(rolls []Roll) error {
	if j.Status != JobStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Layout can only be set while processing")
	}
	j.Rolls = rolls
	j.UpdatedAt = time.Now()
	return nil
}

// Complete moves the job to COMPLETED with the stored artifact
func (j *GangsheetJob) Complete(artifactPath string) error {
	if artifactPath == "" {
		return shared.NewDomainError("INVALID_INPUT", "Artifact path cannot be empty")
	}
	if err := j.transition(JobStatusCompleted); err != nil {
		return err
	}
	j.ArtifactPath = artifactPath
	now := time.Now()
	j.CompletedAt = &now
	j.AddDomainEvent(NewGangsheetJobCompletedEvent(j))
	return nil
}

// Fail moves the job to FAILED with a diagnostic code and message.
// Failing an already terminal job is a no-op so late workers cannot
// clobber a completed result.
func (j *GangsheetJob) Fail(code, message string) error {
	if j.Status.IsTerminal() {
		return nil
	}
	if err := j.transition(JobStatusFailed); err != nil {
		return err
	}
	j.ErrorCode = code
	j.ErrorMessage = message
	now := time.Now()
	j.CompletedAt = &now
	j.AddDomainEvent(NewGangsheetJobFailedEvent(j))
	return nil
}

func (j *GangsheetJob) transition(target JobStatus) error {
	if !j.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot transition job from "+j.Status.String()+" to "+target.String())
	}
	old := j.Status
	j.Status = target
	j.UpdatedAt = time.Now()
	j.AddDomainEvent(NewGangsheetJobStatusChangedEvent(j, old))
	return nil
}

// RollCount returns the number of packed rolls
func (j *GangsheetJob) RollCount() int {
	return len(j.Rolls)
}

// HasArtifact reports whether a downloadable artifact exists
func (j *GangsheetJob) HasArtifact() bool {
	return j.Status == JobStatusCompleted && j.ArtifactPath != ""
}
