package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/models"
	"github.com/panchorivasf/tidyacoustics/scanner"
)

var (
	day1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
)

// writeCorpus lays out scenario A: five 5MB files on day one, five 1MB
// files on day two.
func writeCorpus(t *testing.T, root string) {
	t.Helper()
	const mb = models.BytesPerMB
	for i := 0; i < 5; i++ {
		writeRecording(t, root, day1, i, 5*mb)
		writeRecording(t, root, day2, i, 1*mb)
	}
}

func writeRecording(t *testing.T, root string, day time.Time, i int, size int) {
	t.Helper()
	ts := day.Add(time.Duration(i) * time.Hour)
	name := "AM01_" + ts.Format("20060102_150405") + ".wav"
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func testConfig(root string) Config {
	return Config{
		Root:       root,
		Workers:    models.Parallelism(2),
		Style:      models.StyleLines,
		LogPath:    filepath.Join(root, "scan_report.txt"),
		ChartPath:  filepath.Join(root, "scan_chart.png"),
		EnableDump: true,
		EnableTail: true,
		Log:        zap.NewNop(),
	}
}

func TestRunScenarioA(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root)

	rep, err := New(testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, rep.FileCount)
	assert.InDelta(t, 3.0, rep.ThresholdMB, 1e-9)
	require.Len(t, rep.CorruptedDates, 1)
	assert.Equal(t, models.DateOf(day2), rep.CorruptedDates[0])

	// Exactly the five undersized day-two files are isolated.
	entries, err := os.ReadDir(filepath.Join(root, "tail"))
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	for _, e := range entries {
		assert.Contains(t, e.Name(), "20240302")
	}

	// Artifacts written.
	logData, err := os.ReadFile(filepath.Join(root, "scan_report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Median file size: 3 MB")
	assert.Contains(t, string(logData), "2024-03-02")

	chartInfo, err := os.Stat(filepath.Join(root, "scan_chart.png"))
	require.NoError(t, err)
	assert.Greater(t, chartInfo.Size(), int64(0))

	// No dump files, so no dump folder.
	assert.NoDirExists(t, filepath.Join(root, "dump"))
}

func TestRunNoFilesIsFatalBeforeSideEffects(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)

	rep, err := New(cfg).Run(context.Background())
	require.ErrorIs(t, err, scanner.ErrNoFilesFound)
	assert.Nil(t, rep)

	// Nothing written, nothing created.
	assert.NoFileExists(t, cfg.LogPath)
	assert.NoFileExists(t, cfg.ChartPath)
	assert.NoDirExists(t, filepath.Join(root, "dump"))
	assert.NoDirExists(t, filepath.Join(root, "tail"))
}

func TestRunQuarantinesDumpFiles(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root)
	dumpPath := filepath.Join(root, "AM01_memory_dump.wav")
	require.NoError(t, os.WriteFile(dumpPath, make([]byte, 1024), 0644))

	rep, err := New(testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "dump", "AM01_memory_dump.wav"))
	assert.NoFileExists(t, dumpPath)

	// A file never lands in both destinations.
	seen := map[string]models.MoveKind{}
	for _, m := range rep.Moves {
		prev, dup := seen[m.Source]
		require.False(t, dup, "file %s moved twice (%s and %s)", m.Source, prev, m.Kind)
		seen[m.Source] = m.Kind
	}
}

func TestRunUndersizedDumpFileMovesOnlyToDump(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root)

	// Dump-marked, parseable, and below the median on the corrupted day,
	// so it qualifies for both phases. The quarantine wins and the tail
	// phase must not chase the vanished source path.
	ts := day2.Add(time.Hour)
	dumpPath := filepath.Join(root, "AM01_dump_20240302_100000.wav")
	require.NoError(t, os.WriteFile(dumpPath, make([]byte, models.BytesPerMB/2), 0644))
	require.NoError(t, os.Chtimes(dumpPath, ts, ts))

	rep, err := New(testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, rep.ThresholdMB, 1e-9)
	require.Len(t, rep.CorruptedDates, 1)

	assert.FileExists(t, filepath.Join(root, "dump", "AM01_dump_20240302_100000.wav"))
	assert.NoFileExists(t, dumpPath)

	// It was the only tail candidate, so nothing is left to isolate.
	assert.NoDirExists(t, filepath.Join(root, "tail"))
	require.Len(t, rep.Moves, 1)
	assert.Equal(t, models.MoveDump, rep.Moves[0].Kind)
}

func TestRunMutatesOnlyAfterScanCompletes(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root)

	p := New(testConfig(root))

	var mu sync.Mutex
	var scanTimes, moveTimes []time.Time
	p.Indexer.FileHook = func(models.FileRecord) {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		scanTimes = append(scanTimes, time.Now())
		mu.Unlock()
	}
	p.Reorganizer.MoveFn = func(src, dst string) error {
		mu.Lock()
		moveTimes = append(moveTimes, time.Now())
		mu.Unlock()
		return os.Rename(src, dst)
	}

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, scanTimes, 10)
	require.NotEmpty(t, moveTimes)

	var lastScan time.Time
	for _, ts := range scanTimes {
		if ts.After(lastScan) {
			lastScan = ts
		}
	}
	for _, ts := range moveTimes {
		assert.True(t, ts.After(lastScan),
			"move at %v before scan finished at %v", ts, lastScan)
	}
}

func TestRunCancelledBeforeMutation(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	p := New(testConfig(root))
	p.Indexer.FileHook = func(models.FileRecord) { cancel() }

	_, err := p.Run(ctx)
	require.Error(t, err)

	// Cancellation during the scan leaves the corpus untouched.
	assert.NoDirExists(t, filepath.Join(root, "tail"))
	assert.NoDirExists(t, filepath.Join(root, "dump"))
	assert.NoFileExists(t, filepath.Join(root, "scan_report.txt"))
}
