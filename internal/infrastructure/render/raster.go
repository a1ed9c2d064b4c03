package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// ImagingRenderer rasterizes packed rolls onto a transparent canvas.
// Designs are fetched once per distinct reference per roll, resized with
// Lanczos resampling to their exact placed size, and composited at the
// packer's coordinates scaled by DPI.
type ImagingRenderer struct {
	designs DesignSource
	footer  *footerDrawer
	logger  *zap.Logger
}

// NewImagingRenderer creates a renderer backed by the given design source
func NewImagingRenderer(designs DesignSource, logger *zap.Logger) (*ImagingRenderer, error) {
	footer, err := newFooterDrawer()
	if err != nil {
		return nil, err
	}
	return &ImagingRenderer{
		designs: designs,
		footer:  footer,
		logger:  logger,
	}, nil
}

// RenderRoll implements RollRenderer
func (r *ImagingRenderer) RenderRoll(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	start := time.Now()
	s := req.Settings
	dpi := s.DPI

	widthPx := toPx(s.RollWidth, dpi)
	heightPx := toPx(req.Roll.ContentHeight+s.FooterHeight, dpi)
	canvas := imaging.New(widthPx, heightPx, color.NRGBA{})

	var borderColor color.NRGBA
	if s.Border {
		var err error
		borderColor, err = ParseHexColor(s.BorderColor)
		if err != nil {
			return nil, NewRenderError(ErrCodeRenderFailed, "invalid border color", err)
		}
	}

	// Designs are fetched once per distinct reference on this roll.
	cache := make(map[string]image.Image)

	for _, p := range req.Roll.Placements {
		if err := ctx.Err(); err != nil {
			return nil, NewRenderError(ErrCodeCancelled, "rasterization cancelled", err)
		}

		design, ok := cache[p.DesignRef]
		if !ok {
			var err error
			design, err = r.designs.FetchDesign(ctx, p.DesignRef)
			if err != nil {
				return nil, NewRenderError(ErrCodeFetchFailed,
					fmt.Sprintf("design %s could not be fetched", p.DesignRef), err)
			}
			cache[p.DesignRef] = design
		}

		x, y := toPx(p.X, dpi), toPx(p.Y, dpi)
		w, h := toPx(p.Width, dpi), toPx(p.Height, dpi)

		designX, designY, designW, designH := x, y, w, h
		if s.Border {
			// The border ring is part of the packed footprint; the design
			// fills the inset area.
			inset := toPx(s.BorderSize, dpi)
			canvas = fillRect(canvas, image.Rect(x, y, x+w, y+h), borderColor)
			designX, designY = x+inset, y+inset
			designW, designH = w-2*inset, h-2*inset
		}

		scaled := design
		if p.Rotated {
			scaled = imaging.Rotate270(scaled)
		}
		scaled = imaging.Resize(scaled, designW, designH, imaging.Lanczos)
		canvas = imaging.Paste(canvas, scaled, image.Pt(designX, designY))
	}

	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeCancelled, "rasterization cancelled", err)
	}

	if s.FooterHeight > 0 {
		footerTop := toPx(req.Roll.ContentHeight, dpi)
		if err := r.footer.draw(canvas, req, footerTop); err != nil {
			return nil, NewRenderError(ErrCodeRenderFailed, "footer rendering failed", err)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, NewRenderError(ErrCodeEncodeFailed, "png encoding failed", err)
	}

	if r.logger != nil {
		r.logger.Debug("roll rasterized",
			zap.Int("roll", req.Roll.Number),
			zap.Int("placements", len(req.Roll.Placements)),
			zap.Int("width_px", widthPx),
			zap.Int("height_px", heightPx),
			zap.Duration("duration", time.Since(start)))
	}

	return &RenderResult{
		PNG:            buf.Bytes(),
		WidthPx:        widthPx,
		HeightPx:       heightPx,
		RenderDuration: time.Since(start),
	}, nil
}

// toPx converts inches to pixels at the given DPI
func toPx(inches float64, dpi int) int {
	return int(math.Round(inches * float64(dpi)))
}

// fillRect paints a solid rectangle onto the canvas
func fillRect(canvas *image.NRGBA, rect image.Rectangle, c color.NRGBA) *image.NRGBA {
	rect = rect.Intersect(canvas.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			canvas.SetNRGBA(x, y, c)
		}
	}
	return canvas
}
