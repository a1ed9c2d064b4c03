package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/gangsheet"
	"github.com/printnest/backend/internal/domain/shared"
)

// GangsheetJobModel is the GORM model for gangsheet_jobs table.
// The settings snapshot, order id list, and packed layout are stored as
// JSON text so the row survives settings schema evolution unchanged.
type GangsheetJobModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name         string     `gorm:"type:varchar(120);not null"`
	OrderIDs     string     `gorm:"column:order_ids;type:text;not null"`
	Settings     string     `gorm:"type:text;not null"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Layout       string     `gorm:"type:text"`
	ArtifactPath string     `gorm:"column:artifact_path;type:text"`
	ErrorCode    string     `gorm:"column:error_code;type:varchar(50)"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at;index"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
	Version      int        `gorm:"not null;default:1"`
}

// TableName returns the table name for GangsheetJobModel
func (GangsheetJobModel) TableName() string {
	return "gangsheet_jobs"
}

// ToDomain converts GangsheetJobModel to domain GangsheetJob
func (m *GangsheetJobModel) ToDomain() (*gangsheet.GangsheetJob, error) {
	var orderIDs []uuid.UUID
	if err := json.Unmarshal([]byte(m.OrderIDs), &orderIDs); err != nil {
		return nil, fmt.Errorf("decode order ids for job %s: %w", m.ID, err)
	}
	var settings gangsheet.RollSettings
	if err := json.Unmarshal([]byte(m.Settings), &settings); err != nil {
		return nil, fmt.Errorf("decode settings for job %s: %w", m.ID, err)
	}
	var rolls []gangsheet.Roll
	if m.Layout != "" {
		if err := json.Unmarshal([]byte(m.Layout), &rolls); err != nil {
			return nil, fmt.Errorf("decode layout for job %s: %w", m.ID, err)
		}
	}

	return &gangsheet.GangsheetJob{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID: m.TenantID,
		},
		Name:         m.Name,
		OrderIDs:     orderIDs,
		Settings:     settings,
		Status:       gangsheet.JobStatus(m.Status),
		Rolls:        rolls,
		ArtifactPath: m.ArtifactPath,
		ErrorCode:    m.ErrorCode,
		ErrorMessage: m.ErrorMessage,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
	}, nil
}

// GangsheetJobModelFromDomain creates a GangsheetJobModel from domain GangsheetJob
func GangsheetJobModelFromDomain(j *gangsheet.GangsheetJob) (*GangsheetJobModel, error) {
	orderIDs, err := json.Marshal(j.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("encode order ids for job %s: %w", j.ID, err)
	}
	settings, err := json.Marshal(j.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings for job %s: %w", j.ID, err)
	}
	layout := ""
	if len(j.Rolls) > 0 {
		data, err := json.Marshal(j.Rolls)
		if err != nil {
			return nil, fmt.Errorf("encode layout for job %s: %w", j.ID, err)
		}
		layout = string(data)
	}

	return &GangsheetJobModel{
		ID:           j.ID,
		TenantID:     j.TenantID,
		Name:         j.Name,
		OrderIDs:     string(orderIDs),
		Settings:     string(settings),
		Status:       string(j.Status),
		Layout:       layout,
		ArtifactPath: j.ArtifactPath,
		ErrorCode:    j.ErrorCode,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		Version:      j.Version,
	}, nil
}

// RollSettingsModel is the GORM model for tenant_roll_settings table
type RollSettingsModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Settings  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

// TableName returns the table name for RollSettingsModel
func (RollSettingsModel) TableName() string {
	return "tenant_roll_settings"
}

// ToDomain converts RollSettingsModel to domain TenantRollSettings
func (m *RollSettingsModel) ToDomain() (*gangsheet.TenantRollSettings, error) {
	var settings gangsheet.RollSettings
	if err := json.Unmarshal([]byte(m.Settings), &settings); err != nil {
		return nil, fmt.Errorf("decode roll settings for tenant %s: %w", m.TenantID, err)
	}
	return &gangsheet.TenantRollSettings{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID: m.TenantID,
		},
		Settings: settings,
	}, nil
}

// RollSettingsModelFromDomain creates a RollSettingsModel from domain TenantRollSettings
func RollSettingsModelFromDomain(t *gangsheet.TenantRollSettings) (*RollSettingsModel, error) {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode roll settings for tenant %s: %w", t.TenantID, err)
	}
	return &RollSettingsModel{
		ID:        t.ID,
		TenantID:  t.TenantID,
		Settings:  string(settings),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Version:   t.Version,
	}, nil
}
