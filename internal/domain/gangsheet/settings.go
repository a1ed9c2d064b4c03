package gangsheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/shared"
)

// TenantRollSettings is the per-tenant persisted roll configuration.
// One row per tenant; tenants without a row fall back to defaults.
type TenantRollSettings struct {
	shared.TenantAggregateRoot
	Settings RollSettings
}

// NewTenantRollSettings creates validated settings for a tenant
func NewTenantRollSettings(tenantID uuid.UUID, settings RollSettings) (*TenantRollSettings, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant ID cannot be empty")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &TenantRollSettings{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Settings:            settings,
	}, nil
}

// Update replaces the settings after validation
func (t *TenantRollSettings) Update(settings RollSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	t.Settings = settings
	t.UpdatedAt = time.Now()
	return nil
}
