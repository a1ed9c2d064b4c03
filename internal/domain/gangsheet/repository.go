package gangsheet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/shared"
)

// GangsheetJobRepository persists gangsheet jobs
type GangsheetJobRepository interface {
	shared.TenantRepository[GangsheetJob]

	// CountForTenant returns the number of jobs matching the filter
	// within a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// MarkProcessing atomically transitions a PENDING job to PROCESSING.
	// It returns false when the job was not pending, which is how a
	// worker discovers that another worker (or a cancel) got there first.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// FindPendingIDs returns ids of pending jobs, oldest first. Used to
	// requeue work that was in flight when the process last stopped.
	FindPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)

	// CountByStatusForTenant returns per-status job counts for a tenant
	CountByStatusForTenant(ctx context.Context, tenantID uuid.UUID) (map[JobStatus]int64, error)

	// DeleteTerminalOlderThan removes terminal jobs whose completion is
	// before the cutoff, returning the deleted jobs so callers can clean
	// up their artifacts.
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) ([]GangsheetJob, error)
}

// RollSettingsRepository persists per-tenant roll settings
type RollSettingsRepository interface {
	// FindByTenant returns the tenant's settings or shared.ErrNotFound
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*TenantRollSettings, error)

	// Save inserts or updates the tenant's settings row
	Save(ctx context.Context, settings *TenantRollSettings) error
}
