package render

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/gangsheet"
)

// RenderRequest contains the parameters for rasterizing one packed roll
type RenderRequest struct {
	// JobID identifies the owning generation job, encoded into the footer QR
	JobID uuid.UUID
	// JobName is printed in the roll footer
	JobName string
	// Roll is the packed layout to draw
	Roll gangsheet.Roll
	// TotalRolls is the job's roll count, for the "roll N of M" footer label
	TotalRolls int
	// Settings is the job's settings snapshot (dimensions, DPI, border)
	Settings gangsheet.RollSettings
}

// RenderResult contains the output from rasterizing a roll
type RenderResult struct {
	// PNG is the encoded image
	PNG []byte
	// WidthPx and HeightPx are the raster dimensions
	WidthPx  int
	HeightPx int
	// RenderDuration is how long the rasterization took
	RenderDuration time.Duration
}

// RollRenderer defines the interface for rasterizing packed rolls
type RollRenderer interface {
	// RenderRoll draws a packed roll into a print-ready PNG
	RenderRoll(ctx context.Context, req *RenderRequest) (*RenderResult, error)
}

// DesignSource fetches design images by their storage reference
type DesignSource interface {
	FetchDesign(ctx context.Context, ref string) (image.Image, error)
}

// RenderError represents an error during roll rasterization
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rasterization failures
const (
	ErrCodeFetchFailed  = "UPSTREAM_FETCH_FAILURE"
	ErrCodeDecodeFailed = "DESIGN_DECODE_FAILED"
	ErrCodeRenderFailed = "RENDER_FAILURE"
	ErrCodeEncodeFailed = "ENCODE_FAILED"
	ErrCodeCancelled    = "CANCELLED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
