package packaging

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/gangsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archiveTestJob(t *testing.T) *gangsheet.GangsheetJob {
	t.Helper()
	job, err := gangsheet.NewGangsheetJob(uuid.New(), "batch", []uuid.UUID{uuid.New()}, gangsheet.DefaultRollSettings())
	require.NoError(t, err)
	return job
}

func archiveTestRolls() []RollFile {
	return []RollFile{
		{
			Roll: gangsheet.Roll{
				Number:        1,
				ContentHeight: 10,
				Placements: []gangsheet.Placement{
					{OrderNumber: "ORD-1", DesignRef: "designs/a.png", X: 0.25, Y: 0.25, Width: 4, Height: 3},
				},
			},
			PNG:     []byte("png-one"),
			WidthPx: 6600, HeightPx: 3600,
		},
		{
			Roll:    gangsheet.Roll{Number: 2, ContentHeight: 4},
			PNG:     []byte("png-two"),
			WidthPx: 6600, HeightPx: 1800,
		},
	}
}

func TestBuildArchive(t *testing.T) {
	job := archiveTestJob(t)
	generatedAt := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	data, err := BuildArchive(job, archiveTestRolls(), generatedAt)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"roll-1.png", "roll-2.png", "manifest.json"}, names)

	rc, err := zr.Open("roll-1.png")
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("png-one"), content)

	rc, err = zr.Open("manifest.json")
	require.NoError(t, err)
	manifestData, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	var manifest Manifest
	require.NoError(t, json.Unmarshal(manifestData, &manifest))
	assert.Equal(t, job.ID, manifest.JobID)
	assert.Equal(t, job.TenantID, manifest.TenantID)
	assert.True(t, manifest.GeneratedAt.Equal(generatedAt))
	assert.Equal(t, 2, manifest.RollCount)
	require.Len(t, manifest.Rolls, 2)
	assert.Equal(t, "roll-1.png", manifest.Rolls[0].FileName)
	assert.Equal(t, []string{"ORD-1"}, manifest.Rolls[0].OrderNumbers)
	assert.Len(t, manifest.Rolls[0].Placements, 1)
}

func TestBuildArchive_Reproducible(t *testing.T) {
	job := archiveTestJob(t)
	rolls := archiveTestRolls()
	generatedAt := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)

	first, err := BuildArchive(job, rolls, generatedAt)
	require.NoError(t, err)
	second, err := BuildArchive(job, rolls, generatedAt)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildArchive_RequiresRolls(t *testing.T) {
	_, err := BuildArchive(archiveTestJob(t), nil, time.Now())
	assert.Error(t, err)
}

func TestRollFileName(t *testing.T) {
	assert.Equal(t, "roll-7.png", RollFileName(7))
}
