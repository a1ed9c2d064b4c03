package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printnest/backend/internal/domain/gangsheet"
	"github.com/printnest/backend/internal/domain/shared"
	"github.com/printnest/backend/internal/infrastructure/persistence/models"
)

// GangsheetJobSortFields defines allowed sort fields for gangsheet jobs
var GangsheetJobSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"status":       true,
	"started_at":   true,
	"completed_at": true,
}

// GormGangsheetJobRepository implements GangsheetJobRepository using GORM
type GormGangsheetJobRepository struct {
	db *gorm.DB
}

// NewGormGangsheetJobRepository creates a new GormGangsheetJobRepository
func NewGormGangsheetJobRepository(db *gorm.DB) *GormGangsheetJobRepository {
	return &GormGangsheetJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormGangsheetJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*gangsheet.GangsheetJob, error) {
	var model models.GangsheetJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIDForTenant finds a job by ID within a specific tenant
func (r *GormGangsheetJobRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*gangsheet.GangsheetJob, error) {
	var model models.GangsheetJobModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll finds all jobs with optional filtering
func (r *GormGangsheetJobRepository) FindAll(ctx context.Context, filter shared.Filter) ([]gangsheet.GangsheetJob, error) {
	var jobModels []models.GangsheetJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GangsheetJobModel{}), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels)
}

// FindAllForTenant finds all jobs for a specific tenant
func (r *GormGangsheetJobRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]gangsheet.GangsheetJob, error) {
	var jobModels []models.GangsheetJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GangsheetJobModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels)
}

// Save saves a job (insert or update)
func (r *GormGangsheetJobRepository) Save(ctx context.Context, job *gangsheet.GangsheetJob) error {
	model, err := models.GangsheetJobModelFromDomain(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a job by ID
func (r *GormGangsheetJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GangsheetJobModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the total count of jobs matching the filter
func (r *GormGangsheetJobRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.GangsheetJobModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForTenant returns the number of jobs matching the filter within a tenant
func (r *GormGangsheetJobRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.GangsheetJobModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkProcessing atomically transitions a PENDING job to PROCESSING.
// The conditional update is what guarantees at most one worker runs a
// job: the second worker sees zero rows affected and walks away.
func (r *GormGangsheetJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.GangsheetJobModel{}).
		Where("id = ? AND status = ?", id, string(gangsheet.JobStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(gangsheet.JobStatusProcessing),
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindPendingIDs returns ids of pending jobs, oldest first
func (r *GormGangsheetJobRepository) FindPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.GangsheetJobModel{}).
		Where("status = ?", string(gangsheet.JobStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByStatusForTenant returns per-status job counts for a tenant
func (r *GormGangsheetJobRepository) CountByStatusForTenant(ctx context.Context, tenantID uuid.UUID) (map[gangsheet.JobStatus]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.GangsheetJobModel{}).
		Select("status, count(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[gangsheet.JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[gangsheet.JobStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// DeleteTerminalOlderThan removes terminal jobs completed before the
// cutoff and returns them so callers can delete their artifacts
func (r *GormGangsheetJobRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) ([]gangsheet.GangsheetJob, error) {
	terminal := []string{
		string(gangsheet.JobStatusCompleted),
		string(gangsheet.JobStatusFailed),
	}

	var jobModels []models.GangsheetJobModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?", terminal, cutoff).
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	if len(jobModels) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(jobModels))
	for i, m := range jobModels {
		ids[i] = m.ID
	}
	if err := r.db.WithContext(ctx).
		Delete(&models.GangsheetJobModel{}, "id IN ?", ids).Error; err != nil {
		return nil, err
	}

	return toDomainJobs(jobModels)
}

// applyFilter applies filter options to the query
func (r *GormGangsheetJobRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, GangsheetJobSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormGangsheetJobRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "name":
			query = query.Where("name LIKE ?", "%"+value.(string)+"%")
		}
	}
	return query
}

func toDomainJobs(jobModels []models.GangsheetJobModel) ([]gangsheet.GangsheetJob, error) {
	jobs := make([]gangsheet.GangsheetJob, len(jobModels))
	for i, model := range jobModels {
		job, err := model.ToDomain()
		if err != nil {
			return nil, err
		}
		jobs[i] = *job
	}
	return jobs, nil
}

// Ensure GormGangsheetJobRepository implements GangsheetJobRepository
var _ gangsheet.GangsheetJobRepository = (*GormGangsheetJobRepository)(nil)
