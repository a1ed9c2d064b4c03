// Package packaging assembles rendered rolls into the downloadable
// artifact: one zip holding roll-{n}.png files and a manifest.json
// describing the layout.
package packaging

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/gangsheet"
)

// RollFile pairs a packed roll with its rendered raster
type RollFile struct {
	Roll     gangsheet.Roll
	PNG      []byte
	WidthPx  int
	HeightPx int
}

// Manifest is the machine-readable layout summary shipped inside the
// artifact. GeneratedAt is the only field that varies between runs:
// identical inputs with the same timestamp produce byte-identical
// archives.
type Manifest struct {
	JobID       uuid.UUID              `json:"job_id"`
	JobName     string                 `json:"job_name"`
	TenantID    uuid.UUID              `json:"tenant_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Settings    gangsheet.RollSettings `json:"settings"`
	RollCount   int                    `json:"roll_count"`
	Rolls       []ManifestRoll         `json:"rolls"`
}

// ManifestRoll describes one roll file in the archive
type ManifestRoll struct {
	Number        int                   `json:"number"`
	FileName      string                `json:"file_name"`
	WidthPx       int                   `json:"width_px"`
	HeightPx      int                   `json:"height_px"`
	ContentHeight float64               `json:"content_height"`
	OrderNumbers  []string              `json:"order_numbers"`
	Placements    []gangsheet.Placement `json:"placements"`
}

// RollFileName returns the archive entry name for a roll
func RollFileName(number int) string {
	return fmt.Sprintf("roll-%d.png", number)
}

// BuildArchive assembles the artifact zip. Roll PNGs are stored without
// recompression; the manifest is deflated. Entries carry no modification
// times, so two archives built from the same inputs differ only in the
// manifest's generated_at field.
func BuildArchive(job *gangsheet.GangsheetJob, rolls []RollFile, generatedAt time.Time) ([]byte, error) {
	if len(rolls) == 0 {
		return nil, fmt.Errorf("archive requires at least one roll")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := Manifest{
		JobID:       job.ID,
		JobName:     job.Name,
		TenantID:    job.TenantID,
		GeneratedAt: generatedAt.UTC(),
		Settings:    job.Settings,
		RollCount:   len(rolls),
	}

	for _, rf := range rolls {
		name := RollFileName(rf.Roll.Number)
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Store, // png data is already compressed
		})
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", name, err)
		}
		if _, err := w.Write(rf.PNG); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", name, err)
		}

		manifest.Rolls = append(manifest.Rolls, ManifestRoll{
			Number:        rf.Roll.Number,
			FileName:      name,
			WidthPx:       rf.WidthPx,
			HeightPx:      rf.HeightPx,
			ContentHeight: rf.Roll.ContentHeight,
			OrderNumbers:  rf.Roll.OrderNumbers(),
			Placements:    rf.Roll.Placements,
		})
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "manifest.json",
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, fmt.Errorf("create manifest entry: %w", err)
	}
	if _, err := w.Write(manifestData); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
