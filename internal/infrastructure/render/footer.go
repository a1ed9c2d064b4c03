package render

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// maxFooterOrders caps how many order numbers are listed in the footer
// before collapsing the rest into "+N more"
const maxFooterOrders = 8

var (
	footerBg   = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	footerInk  = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	footerRule = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// rollTag is the payload encoded into the footer QR code. Operators scan
// it at the press to match a physical roll back to its job.
type rollTag struct {
	JobID      uuid.UUID `json:"job_id"`
	JobName    string    `json:"job_name"`
	Roll       int       `json:"roll"`
	TotalRolls int       `json:"total_rolls"`
}

// footerDrawer draws the identification band at the bottom of each roll:
// a rule line, the job name and roll position, the contributing order
// numbers, and a QR tag on the right.
type footerDrawer struct {
	typeface *opentype.Font
}

func newFooterDrawer() (*footerDrawer, error) {
	typeface, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "embedded font could not be parsed", err)
	}
	return &footerDrawer{typeface: typeface}, nil
}

// draw paints the footer band from footerTop to the bottom of the canvas.
// Faces are created per call: opentype faces are not safe for concurrent
// use and rolls render in parallel.
func (f *footerDrawer) draw(canvas *image.NRGBA, req *RenderRequest, footerTop int) error {
	bounds := canvas.Bounds()
	band := image.Rect(bounds.Min.X, footerTop, bounds.Max.X, bounds.Max.Y)
	if band.Empty() {
		return nil
	}
	draw.Draw(canvas, band, image.NewUniform(footerBg), image.Point{}, draw.Src)

	dpi := req.Settings.DPI
	ruleH := dpi / 150
	if ruleH < 1 {
		ruleH = 1
	}
	draw.Draw(canvas, image.Rect(band.Min.X, band.Min.Y, band.Max.X, band.Min.Y+ruleH),
		image.NewUniform(footerRule), image.Point{}, draw.Src)

	pad := dpi / 8
	if pad < 2 {
		pad = 2
	}

	// QR tag on the right edge, sized to the band.
	textLimit := band.Max.X - pad
	qrSize := band.Dy() - 2*pad
	if qrSize >= 32 {
		tag := rollTag{
			JobID:      req.JobID,
			JobName:    req.JobName,
			Roll:       req.Roll.Number,
			TotalRolls: req.TotalRolls,
		}
		payload, err := json.Marshal(tag)
		if err != nil {
			return err
		}
		qr, err := qrcode.New(string(payload), qrcode.Medium)
		if err != nil {
			return err
		}
		qrImg := qr.Image(qrSize)
		qrRect := image.Rect(band.Max.X-pad-qrSize, band.Min.Y+pad, band.Max.X-pad, band.Min.Y+pad+qrSize)
		draw.Draw(canvas, qrRect, qrImg, image.Point{}, draw.Over)
		textLimit = qrRect.Min.X - pad
	}

	titleFace, err := f.face(16, dpi)
	if err != nil {
		return err
	}
	defer titleFace.Close()
	detailFace, err := f.face(11, dpi)
	if err != nil {
		return err
	}
	defer detailFace.Close()

	title := fmt.Sprintf("%s  |  Roll %d of %d", req.JobName, req.Roll.Number, req.TotalRolls)
	orders := "Orders: " + formatOrderList(req.Roll.OrderNumbers())

	titleMetrics := titleFace.Metrics()
	titleY := band.Min.Y + pad + titleMetrics.Ascent.Ceil()
	drawText(canvas, titleFace, title, band.Min.X+pad, titleY, textLimit)

	detailMetrics := detailFace.Metrics()
	detailY := titleY + titleMetrics.Descent.Ceil() + pad/2 + detailMetrics.Ascent.Ceil()
	if detailY < band.Max.Y-pad {
		drawText(canvas, detailFace, orders, band.Min.X+pad, detailY, textLimit)
	}

	return nil
}

func (f *footerDrawer) face(points float64, dpi int) (font.Face, error) {
	return opentype.NewFace(f.typeface, &opentype.FaceOptions{
		Size:    points,
		DPI:     float64(dpi),
		Hinting: font.HintingFull,
	})
}

// drawText draws s at (x, baselineY), trimming it with an ellipsis if it
// would run past limitX
func drawText(canvas *image.NRGBA, face font.Face, s string, x, baselineY, limitX int) {
	avail := limitX - x
	if avail <= 0 {
		return
	}
	for len(s) > 0 && font.MeasureString(face, s).Ceil() > avail {
		s = ellipsize(s)
	}
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(footerInk),
		Face: face,
		Dot:  fixed.P(x, baselineY),
	}
	d.DrawString(s)
}

func ellipsize(s string) string {
	s = strings.TrimSuffix(s, "...")
	runes := []rune(s)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1]) + "..."
}

// formatOrderList joins order numbers, collapsing a long tail
func formatOrderList(numbers []string) string {
	if len(numbers) == 0 {
		return "none"
	}
	if len(numbers) <= maxFooterOrders {
		return strings.Join(numbers, ", ")
	}
	shown := strings.Join(numbers[:maxFooterOrders], ", ")
	return fmt.Sprintf("%s (+%d more)", shown, len(numbers)-maxFooterOrders)
}
