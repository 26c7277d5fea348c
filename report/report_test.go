package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panchorivasf/tidyacoustics/models"
)

func sampleReport() *models.ScanReport {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	return &models.ScanReport{
		Root:           "/corpus",
		ScannedAt:      d1,
		FileCount:      10,
		TotalSizeBytes: 30 * models.BytesPerMB,
		ThresholdMB:    3.0,
		Days: []models.DaySummary{
			{Date: d1, MeanSizeMB: 5.0, FileCount: 5},
			{Date: d2, MeanSizeMB: 1.0, FileCount: 5},
		},
		CorruptedDates: []time.Time{d2},
	}
}

func TestFormatLogLayout(t *testing.T) {
	got := FormatLog(sampleReport())
	want := "Median file size: 3 MB\n" +
		"Corrupted dates:\n" +
		"2024-03-02\n"
	assert.Equal(t, want, got)
}

func TestFormatLogEmptyCorruptedExplicit(t *testing.T) {
	rep := sampleReport()
	rep.CorruptedDates = nil
	got := FormatLog(rep)
	assert.Contains(t, got, "Corrupted dates:\n(none)\n")
}

func TestFormatLogRoundsMedian(t *testing.T) {
	rep := sampleReport()
	rep.ThresholdMB = 2.6
	assert.Contains(t, FormatLog(rep), "Median file size: 3 MB\n")
}

func TestWriteLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_report.txt")
	require.NoError(t, WriteLog(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatLog(sampleReport()), string(data))
}

func TestRenderChartAllStyles(t *testing.T) {
	rep := sampleReport()
	for _, style := range []models.ChartStyle{models.StyleLines, models.StyleBars, models.StylePoints} {
		t.Run(style.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chart.png")
			err := RenderChart(path, rep.Days, style, rep.IsCorrupted)
			require.NoError(t, err)

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}
