package gangsheet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printnest/backend/internal/domain/gangsheet"
	"github.com/printnest/backend/internal/domain/shared"
	"github.com/printnest/backend/internal/infrastructure/logger"
	"github.com/printnest/backend/internal/infrastructure/packaging"
	"github.com/printnest/backend/internal/infrastructure/render"
	"github.com/printnest/backend/internal/infrastructure/storage"
)

// JobQueue dispatches job ids to background workers
type JobQueue interface {
	Enqueue(jobID uuid.UUID) error
	CancelJob(jobID uuid.UUID) bool
}

// Config holds service tuning knobs
type Config struct {
	// ArtifactPrefix is prepended to every artifact object key
	ArtifactPrefix string
	// MaxRollWorkers bounds concurrent roll rendering within one job
	MaxRollWorkers int
	// PresignExpiration is the lifetime of signed artifact URLs
	PresignExpiration time.Duration
}

// DefaultConfig returns default service configuration
func DefaultConfig() Config {
	return Config{
		ArtifactPrefix:    "gangsheets/",
		MaxRollWorkers:    4,
		PresignExpiration: 15 * time.Minute,
	}
}

// GangsheetService handles gangsheet job business operations
type GangsheetService struct {
	jobRepo      gangsheet.GangsheetJobRepository
	settingsRepo gangsheet.RollSettingsRepository
	orders       gangsheet.OrderReader
	renderer     render.RollRenderer
	store        storage.ObjectStorage
	signer       storage.URLSigner // nil when the backend cannot sign URLs
	config       Config
	logger       *zap.Logger

	mu    sync.Mutex
	queue JobQueue
}

// NewGangsheetService creates a new GangsheetService
func NewGangsheetService(
	jobRepo gangsheet.GangsheetJobRepository,
	settingsRepo gangsheet.RollSettingsRepository,
	orders gangsheet.OrderReader,
	renderer render.RollRenderer,
	store storage.ObjectStorage,
	signer storage.URLSigner,
	config Config,
	logger *zap.Logger,
) *GangsheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ArtifactPrefix == "" {
		config.ArtifactPrefix = DefaultConfig().ArtifactPrefix
	}
	if config.MaxRollWorkers <= 0 {
		config.MaxRollWorkers = DefaultConfig().MaxRollWorkers
	}
	if config.PresignExpiration <= 0 {
		config.PresignExpiration = DefaultConfig().PresignExpiration
	}
	return &GangsheetService{
		jobRepo:      jobRepo,
		settingsRepo: settingsRepo,
		orders:       orders,
		renderer:     renderer,
		store:        store,
		signer:       signer,
		config:       config,
		logger:       logger,
	}
}

// AttachQueue wires the background queue in after construction. The runner
// executes jobs through this service, so the two reference each other.
func (s *GangsheetService) AttachQueue(queue JobQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
}

func (s *GangsheetService) jobQueue() JobQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// =============================================================================
// Job Operations
// =============================================================================

// CreateJob creates a gangsheet job and enqueues it for background processing.
// Settings are snapshotted at creation time: later changes to tenant settings
// never affect a job that already exists.
func (s *GangsheetService) CreateJob(ctx context.Context, tenantID uuid.UUID, req CreateJobRequest) (*JobResponse, error) {
	settings, err := s.resolveSettings(ctx, tenantID, req.Settings)
	if err != nil {
		return nil, err
	}

	job, err := gangsheet.NewGangsheetJob(tenantID, req.Name, req.OrderIDs, settings)
	if err != nil {
		return nil, err
	}

	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	// A full queue is not fatal: the job stays PENDING and is requeued
	// on the next runner start.
	if queue := s.jobQueue(); queue != nil {
		if err := queue.Enqueue(job.ID); err != nil {
			s.logger.Warn("failed to enqueue job, leaving pending",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("gangsheet job created",
		zap.String("job_id", job.ID.String()),
		zap.String("name", job.Name),
		zap.Int("orders", len(job.OrderIDs)))

	return toJobResponse(job, false), nil
}

// GetJob retrieves a job with its layout
func (s *GangsheetService) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*JobResponse, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Gangsheet job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return toJobResponse(job, true), nil
}

// ListJobs retrieves a paginated list of jobs without layouts
func (s *GangsheetService) ListJobs(ctx context.Context, tenantID uuid.UUID, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if req.Status != "" {
		status := gangsheet.JobStatus(req.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid job status")
		}
		filter.Filters["status"] = string(status)
	}
	if req.Name != "" {
		filter.Filters["name"] = req.Name
	}

	jobs, err := s.jobRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	total, err := s.jobRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	items := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		items[i] = *toJobResponse(&j, false)
	}

	return &ListJobsResponse{
		Items: items,
		Total: total,
		Page:  req.Page,
		Size:  req.PageSize,
	}, nil
}

// GetJobStats returns per-status job counts for the tenant
func (s *GangsheetService) GetJobStats(ctx context.Context, tenantID uuid.UUID) (*JobStatsResponse, error) {
	counts, err := s.jobRepo.CountByStatusForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	return &JobStatsResponse{
		Pending:    counts[gangsheet.JobStatusPending],
		Processing: counts[gangsheet.JobStatusProcessing],
		Completed:  counts[gangsheet.JobStatusCompleted],
		Failed:     counts[gangsheet.JobStatusFailed],
	}, nil
}

// CancelJob cancels a pending or processing job
func (s *GangsheetService) CancelJob(ctx context.Context, tenantID, jobID uuid.UUID) (*JobResponse, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Gangsheet job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	switch job.Status {
	case gangsheet.JobStatusPending:
		if err := job.Fail("CANCELLED", "Cancelled before processing started"); err != nil {
			return nil, err
		}
		if err := s.jobRepo.Save(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to save job: %w", err)
		}
		s.logger.Info("gangsheet job cancelled", zap.String("job_id", job.ID.String()))
		return toJobResponse(job, false), nil

	case gangsheet.JobStatusProcessing:
		queue := s.jobQueue()
		if queue == nil || !queue.CancelJob(job.ID) {
			return nil, shared.NewDomainError("INVALID_STATE", "Job is processing and cannot be interrupted here")
		}
		// The worker persists the FAILED/CANCELLED state; report the
		// current snapshot.
		s.logger.Info("gangsheet job cancellation requested", zap.String("job_id", job.ID.String()))
		return toJobResponse(job, false), nil

	default:
		return nil, shared.NewDomainError("INVALID_STATE", "Job has already finished")
	}
}

// =============================================================================
// Job Execution
// =============================================================================

// Execute runs a job end to end: claim, pack, render, package, upload.
// It is the worker-pool entry point. The conditional claim means a job id
// enqueued twice renders at most once.
func (s *GangsheetService) Execute(ctx context.Context, jobID uuid.UUID) error {
	ctx, _ = logger.WithJobID(ctx, s.logger, jobID.String())

	claimed, err := s.jobRepo.MarkProcessing(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if !claimed {
		s.logger.Debug("job not claimable, skipping", zap.String("job_id", jobID.String()))
		return nil
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load claimed job: %w", err)
	}

	if err := s.process(ctx, job); err != nil {
		s.failJob(ctx, job, err)
		return err
	}
	return nil
}

// process performs the pipeline after the claim succeeded
func (s *GangsheetService) process(ctx context.Context, job *gangsheet.GangsheetJob) error {
	items, err := s.orders.FetchPrintableLineItems(ctx, job.TenantID, job.OrderIDs)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return render.NewRenderError(render.ErrCodeFetchFailed, "Failed to load order line items", err)
	}
	if len(items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Selected orders contain no printable line items")
	}

	rolls, err := gangsheet.Pack(items, job.Settings)
	if err != nil {
		return err
	}

	if err := job.SetLayout(rolls); err != nil {
		return err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to persist layout: %w", err)
	}

	files, err := s.renderRolls(ctx, job)
	if err != nil {
		return err
	}

	archive, err := packaging.BuildArchive(job, files, time.Now())
	if err != nil {
		return err
	}

	key := s.artifactKey(job)
	if err := s.store.Upload(ctx, key, archive, "application/zip"); err != nil {
		return render.NewRenderError(render.ErrCodeEncodeFailed, "Failed to upload artifact", err)
	}

	if err := job.Complete(key); err != nil {
		return err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to persist completion: %w", err)
	}

	logger.WithLogger(ctx, s.logger).Info("gangsheet job completed",
		zap.Int("rolls", len(files)),
		zap.Int("archive_bytes", len(archive)),
		zap.String("artifact", key))
	return nil
}

// renderRolls renders every roll of the job, bounded by MaxRollWorkers.
// All rolls must succeed; the first failure cancels the rest.
func (s *GangsheetService) renderRolls(ctx context.Context, job *gangsheet.GangsheetJob) ([]packaging.RollFile, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files := make([]packaging.RollFile, len(job.Rolls))
	sem := make(chan struct{}, s.config.MaxRollWorkers)
	var wg sync.WaitGroup

	var errMu sync.Mutex
	var firstErr error

	for i, roll := range job.Rolls {
		wg.Add(1)
		go func(i int, roll gangsheet.Roll) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			result, err := s.renderer.RenderRoll(ctx, &render.RenderRequest{
				JobID:      job.ID,
				JobName:    job.Name,
				Roll:       roll,
				TotalRolls: len(job.Rolls),
				Settings:   job.Settings,
			})
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				cancel()
				return
			}
			files[i] = packaging.RollFile{
				Roll:     roll,
				PNG:      result.PNG,
				WidthPx:  result.WidthPx,
				HeightPx: result.HeightPx,
			}
		}(i, roll)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, render.NewRenderError(render.ErrCodeCancelled, "Rendering interrupted", err)
	}
	return files, nil
}

// failJob records a failure on the job. Uses a detached context so the
// FAILED state survives the cancellation that caused it.
func (s *GangsheetService) failJob(ctx context.Context, job *gangsheet.GangsheetJob, cause error) {
	code, message := classifyFailure(cause)
	log := logger.WithLogger(ctx, s.logger)

	if err := job.Fail(code, message); err != nil {
		log.Error("failed to mark job failed", zap.Error(err))
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.jobRepo.Save(saveCtx, job); err != nil {
		log.Error("failed to persist job failure", zap.Error(err))
		return
	}

	log.Warn("gangsheet job failed",
		zap.String("code", code),
		zap.String("message", message),
		zap.Error(cause))
}

// classifyFailure maps pipeline errors to stable job error codes
func classifyFailure(err error) (code, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code, domainErr.Message
	}
	var renderErr *render.RenderError
	if errors.As(err, &renderErr) {
		return renderErr.Code, renderErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT", "Job processing exceeded the time limit"
	}
	if errors.Is(err, context.Canceled) {
		return "CANCELLED", "Job processing was cancelled"
	}
	return "INTERNAL", "Job processing failed"
}

// =============================================================================
// Preview
// =============================================================================

// PreviewPack computes a layout without creating a job. Pure: nothing is
// persisted and nothing is rendered.
func (s *GangsheetService) PreviewPack(ctx context.Context, tenantID uuid.UUID, req PreviewPackRequest) (*PreviewPackResponse, error) {
	settings, err := s.resolveSettings(ctx, tenantID, req.Settings)
	if err != nil {
		return nil, err
	}

	items := make([]gangsheet.LineItem, len(req.Items))
	for i, dto := range req.Items {
		item, err := gangsheet.NewLineItem(dto.OrderID, dto.OrderNumber, dto.DesignRef,
			dto.PrintWidth, dto.PrintHeight, dto.Quantity, dto.AllowRotate)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	rolls, err := gangsheet.Pack(items, settings)
	if err != nil {
		return nil, err
	}

	return &PreviewPackResponse{
		Settings:        toSettingsDTO(settings),
		RollCount:       len(rolls),
		TotalPlacements: gangsheet.TotalPlacements(rolls),
		Rolls:           toRollDTOs(rolls),
	}, nil
}

// =============================================================================
// Artifacts
// =============================================================================

// GetArtifactLink returns a signed download URL for a completed job
func (s *GangsheetService) GetArtifactLink(ctx context.Context, tenantID, jobID uuid.UUID) (*ArtifactLinkResponse, error) {
	job, err := s.completedJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, shared.NewDomainError("NOT_SUPPORTED", "Artifact links are not available on this storage backend")
	}

	url, expiresAt, err := s.signer.GenerateDownloadURL(ctx, job.ArtifactPath, s.config.PresignExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to sign artifact URL: %w", err)
	}
	return &ArtifactLinkResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// DownloadArtifact streams the artifact bytes for a completed job
func (s *GangsheetService) DownloadArtifact(ctx context.Context, tenantID, jobID uuid.UUID) (*ArtifactDownload, error) {
	job, err := s.completedJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Download(ctx, job.ArtifactPath)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Artifact is no longer available")
		}
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}

	return &ArtifactDownload{
		FileName:    fmt.Sprintf("gangsheet-%s.zip", job.ID),
		ContentType: "application/zip",
		Data:        data,
	}, nil
}

// CanSignArtifacts reports whether GetArtifactLink is usable
func (s *GangsheetService) CanSignArtifacts() bool {
	return s.signer != nil
}

func (s *GangsheetService) completedJob(ctx context.Context, tenantID, jobID uuid.UUID) (*gangsheet.GangsheetJob, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Gangsheet job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job.Status != gangsheet.JobStatusCompleted || !job.HasArtifact() {
		return nil, shared.NewDomainError("NOT_READY", "Job has no artifact yet")
	}
	return job, nil
}

// =============================================================================
// Roll Settings
// =============================================================================

// GetRollSettings returns the tenant's settings, falling back to defaults
func (s *GangsheetService) GetRollSettings(ctx context.Context, tenantID uuid.UUID) (*RollSettingsResponse, error) {
	settings, err := s.settingsRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &RollSettingsResponse{
				TenantID:  tenantID.String(),
				Settings:  toSettingsDTO(gangsheet.DefaultRollSettings()),
				IsDefault: true,
			}, nil
		}
		return nil, fmt.Errorf("failed to get roll settings: %w", err)
	}
	return &RollSettingsResponse{
		TenantID:  tenantID.String(),
		Settings:  toSettingsDTO(settings.Settings),
		UpdatedAt: &settings.UpdatedAt,
	}, nil
}

// UpdateRollSettings replaces the tenant's settings
func (s *GangsheetService) UpdateRollSettings(ctx context.Context, tenantID uuid.UUID, req UpdateRollSettingsRequest) (*RollSettingsResponse, error) {
	existing, err := s.settingsRepo.FindByTenant(ctx, tenantID)
	switch {
	case err == nil:
		if err := existing.Update(req.Settings.toDomain()); err != nil {
			return nil, err
		}
		existing.IncrementVersion()
	case errors.Is(err, shared.ErrNotFound):
		existing, err = gangsheet.NewTenantRollSettings(tenantID, req.Settings.toDomain())
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to get roll settings: %w", err)
	}

	if err := s.settingsRepo.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to save roll settings: %w", err)
	}

	s.logger.Info("roll settings updated", zap.String("tenant_id", tenantID.String()))

	return &RollSettingsResponse{
		TenantID:  tenantID.String(),
		Settings:  toSettingsDTO(existing.Settings),
		UpdatedAt: &existing.UpdatedAt,
	}, nil
}

// =============================================================================
// Retention
// =============================================================================

// CleanupExpired deletes terminal jobs older than maxAge along with their
// stored artifacts. Returns the number of jobs removed.
func (s *GangsheetService) CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	jobs, err := s.jobRepo.DeleteTerminalOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired jobs: %w", err)
	}

	for _, job := range jobs {
		if !job.HasArtifact() {
			continue
		}
		if err := s.store.DeleteObject(ctx, job.ArtifactPath); err != nil {
			s.logger.Warn("failed to delete expired artifact",
				zap.String("job_id", job.ID.String()),
				zap.String("artifact", job.ArtifactPath),
				zap.Error(err))
		}
	}

	// A crash between upload and completion can leave artifact files with
	// no job record; backends that support it sweep those by age too.
	if sweeper, ok := s.store.(storage.StaleSweeper); ok {
		swept, err := sweeper.CleanupOlderThan(ctx, s.config.ArtifactPrefix, maxAge)
		if err != nil {
			s.logger.Warn("failed to sweep stale artifact files", zap.Error(err))
		} else if swept > 0 {
			s.logger.Info("stale artifact files swept", zap.Int("count", swept))
		}
	}

	if len(jobs) > 0 {
		s.logger.Info("expired gangsheet jobs cleaned up", zap.Int("count", len(jobs)))
	}
	return len(jobs), nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// resolveSettings picks explicit settings, else tenant settings, else defaults
func (s *GangsheetService) resolveSettings(ctx context.Context, tenantID uuid.UUID, override *RollSettingsDTO) (gangsheet.RollSettings, error) {
	if override != nil {
		settings := override.toDomain()
		if err := settings.Validate(); err != nil {
			return gangsheet.RollSettings{}, err
		}
		return settings, nil
	}

	stored, err := s.settingsRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return gangsheet.DefaultRollSettings(), nil
		}
		return gangsheet.RollSettings{}, fmt.Errorf("failed to get roll settings: %w", err)
	}
	return stored.Settings, nil
}

func (s *GangsheetService) artifactKey(job *gangsheet.GangsheetJob) string {
	return fmt.Sprintf("%s%s/%s.zip", s.config.ArtifactPrefix, job.TenantID, job.ID)
}
