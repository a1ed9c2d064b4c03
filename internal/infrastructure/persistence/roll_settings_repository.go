package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printnest/backend/internal/domain/gangsheet"
	"github.com/printnest/backend/internal/domain/shared"
	"github.com/printnest/backend/internal/infrastructure/persistence/models"
)

// GormRollSettingsRepository implements RollSettingsRepository using GORM
type GormRollSettingsRepository struct {
	db *gorm.DB
}

// NewGormRollSettingsRepository creates a new GormRollSettingsRepository
func NewGormRollSettingsRepository(db *gorm.DB) *GormRollSettingsRepository {
	return &GormRollSettingsRepository{db: db}
}

// FindByTenant returns the tenant's settings or shared.ErrNotFound
func (r *GormRollSettingsRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*gangsheet.TenantRollSettings, error) {
	var model models.RollSettingsModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save inserts or updates the tenant's settings row. Upsert keyed on
// tenant_id so concurrent first writes cannot create two rows.
func (r *GormRollSettingsRepository) Save(ctx context.Context, settings *gangsheet.TenantRollSettings) error {
	model, err := models.RollSettingsModelFromDomain(settings)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at", "version"}),
		}).
		Create(model).Error
}

// Ensure GormRollSettingsRepository implements RollSettingsRepository
var _ gangsheet.RollSettingsRepository = (*GormRollSettingsRepository)(nil)
