package gangsheet

import (
	"time"

	"github.com/google/uuid"

	"github.com/printnest/backend/internal/domain/gangsheet"
)

// =============================================================================
// Roll Settings DTOs
// =============================================================================

// RollSettingsDTO represents roll settings over the wire
type RollSettingsDTO struct {
	RollWidth     float64 `json:"roll_width" binding:"required,gt=0"`
	MaxRollHeight float64 `json:"max_roll_height" binding:"required,gt=0"`
	DPI           int     `json:"dpi" binding:"required,min=72,max=1200"`
	Gap           float64 `json:"gap" binding:"min=0"`
	Border        bool    `json:"border"`
	BorderSize    float64 `json:"border_size" binding:"min=0"`
	BorderColor   string  `json:"border_color"`
	FooterHeight  float64 `json:"footer_height" binding:"min=0"`
}

// UpdateRollSettingsRequest represents a request to replace tenant roll settings
type UpdateRollSettingsRequest struct {
	Settings RollSettingsDTO `json:"settings" binding:"required"`
}

// RollSettingsResponse represents tenant roll settings
type RollSettingsResponse struct {
	TenantID  string          `json:"tenant_id"`
	Settings  RollSettingsDTO `json:"settings"`
	IsDefault bool            `json:"is_default"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func (d RollSettingsDTO) toDomain() gangsheet.RollSettings {
	return gangsheet.RollSettings{
		RollWidth:     d.RollWidth,
		MaxRollHeight: d.MaxRollHeight,
		DPI:           d.DPI,
		Gap:           d.Gap,
		Border:        d.Border,
		BorderSize:    d.BorderSize,
		BorderColor:   d.BorderColor,
		FooterHeight:  d.FooterHeight,
	}
}

func toSettingsDTO(s gangsheet.RollSettings) RollSettingsDTO {
	return RollSettingsDTO{
		RollWidth:     s.RollWidth,
		MaxRollHeight: s.MaxRollHeight,
		DPI:           s.DPI,
		Gap:           s.Gap,
		Border:        s.Border,
		BorderSize:    s.BorderSize,
		BorderColor:   s.BorderColor,
		FooterHeight:  s.FooterHeight,
	}
}

// =============================================================================
// Job DTOs
// =============================================================================

// CreateJobRequest represents a request to create a gangsheet job
type CreateJobRequest struct {
	Name     string           `json:"name" binding:"required,min=1,max=120"`
	OrderIDs []uuid.UUID      `json:"order_ids" binding:"required,min=1"`
	Settings *RollSettingsDTO `json:"settings"`
}

// ListJobsRequest represents a request to list gangsheet jobs
type ListJobsRequest struct {
	Page     int    `form:"page" binding:"min=1"`
	PageSize int    `form:"page_size" binding:"min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status   string `form:"status"`
	Name     string `form:"name"`
}

// PlacementDTO represents a single placed design on a roll
type PlacementDTO struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	DesignRef   string  `json:"design_ref"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotated     bool    `json:"rotated"`
}

// RollDTO represents one packed roll
type RollDTO struct {
	Number        int            `json:"number"`
	ContentHeight float64        `json:"content_height"`
	OrderNumbers  []string       `json:"order_numbers"`
	Placements    []PlacementDTO `json:"placements"`
}

// JobResponse represents a gangsheet job
type JobResponse struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	OrderIDs     []string        `json:"order_ids"`
	Settings     RollSettingsDTO `json:"settings"`
	RollCount    int             `json:"roll_count"`
	Rolls        []RollDTO       `json:"rolls,omitempty"`
	ArtifactPath string          `json:"artifact_path,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ListJobsResponse represents a paginated list of jobs
type ListJobsResponse struct {
	Items []JobResponse `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// JobStatsResponse represents per-status job counts for a tenant
type JobStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// =============================================================================
// Preview DTOs
// =============================================================================

// LineItemDTO represents one printable line item for a preview
type LineItemDTO struct {
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	OrderNumber string    `json:"order_number" binding:"required"`
	DesignRef   string    `json:"design_ref" binding:"required"`
	PrintWidth  float64   `json:"print_width" binding:"required,gt=0"`
	PrintHeight float64   `json:"print_height" binding:"required,gt=0"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
	AllowRotate bool      `json:"allow_rotate"`
}

// PreviewPackRequest represents a request to pack items without creating a job
type PreviewPackRequest struct {
	Items    []LineItemDTO    `json:"items" binding:"required,min=1"`
	Settings *RollSettingsDTO `json:"settings"`
}

// PreviewPackResponse represents the computed layout for a preview
type PreviewPackResponse struct {
	Settings        RollSettingsDTO `json:"settings"`
	RollCount       int             `json:"roll_count"`
	TotalPlacements int             `json:"total_placements"`
	Rolls           []RollDTO       `json:"rolls"`
}

// =============================================================================
// Artifact DTOs
// =============================================================================

// ArtifactLinkResponse represents a signed download URL for a job artifact
type ArtifactLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ArtifactDownload carries artifact bytes for direct streaming
type ArtifactDownload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// =============================================================================
// Helper Functions
// =============================================================================

func toRollDTOs(rolls []gangsheet.Roll) []RollDTO {
	if len(rolls) == 0 {
		return nil
	}
	out := make([]RollDTO, len(rolls))
	for i, r := range rolls {
		placements := make([]PlacementDTO, len(r.Placements))
		for j, p := range r.Placements {
			placements[j] = PlacementDTO{
				OrderID:     p.OrderID,
				OrderNumber: p.OrderNumber,
				DesignRef:   p.DesignRef,
				X:           p.X,
				Y:           p.Y,
				Width:       p.Width,
				Height:      p.Height,
				Rotated:     p.Rotated,
			}
		}
		out[i] = RollDTO{
			Number:        r.Number,
			ContentHeight: r.ContentHeight,
			OrderNumbers:  r.OrderNumbers(),
			Placements:    placements,
		}
	}
	return out
}

func toJobResponse(j *gangsheet.GangsheetJob, includeRolls bool) *JobResponse {
	orderIDs := make([]string, len(j.OrderIDs))
	for i, id := range j.OrderIDs {
		orderIDs[i] = id.String()
	}

	resp := &JobResponse{
		ID:           j.ID.String(),
		TenantID:     j.TenantID.String(),
		Name:         j.Name,
		Status:       string(j.Status),
		OrderIDs:     orderIDs,
		Settings:     toSettingsDTO(j.Settings),
		RollCount:    j.RollCount(),
		ArtifactPath: j.ArtifactPath,
		ErrorCode:    j.ErrorCode,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if includeRolls {
		resp.Rolls = toRollDTOs(j.Rolls)
	}
	return resp
}
