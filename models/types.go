package models

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const BytesPerMB = 1024 * 1024

// FileRecord is the per-file snapshot captured during the scan phase.
// SensorID and Timestamp are nil when the filename does not follow the
// SENSOR_YYYYMMDD_HHMMSS convention; such records never join a day group
// but still count toward totals and the global median.
// Records are immutable after the scan: SizeBytes is read exactly once.
type FileRecord struct {
	Path       string
	Name       string
	SensorID   *string
	Timestamp  *time.Time
	SizeBytes  int64
	ModifiedAt time.Time
}

// Parsed reports whether the filename matched the naming convention.
func (r *FileRecord) Parsed() bool {
	return r.SensorID != nil && r.Timestamp != nil
}

// SizeMB returns the file size in megabytes at full precision.
func (r *FileRecord) SizeMB() float64 {
	return float64(r.SizeBytes) / BytesPerMB
}

// DaySummary aggregates the files whose modification time falls on one
// calendar day. MeanSizeMB keeps full precision; display rounding is
// left to the renderers.
type DaySummary struct {
	Date       time.Time
	MeanSizeMB float64
	FileCount  int
}

// DateOf truncates a timestamp to its calendar day, the grouping key
// used throughout.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FolderSummary describes one folder of a recording tree: which sensor
// produced it, how many recognized files it holds, their total volume,
// and the date range covered by parseable filenames. Folders with no
// matching files still produce a summary with zero counts and nil range.
type FolderSummary struct {
	FolderPath  string
	SensorID    *string
	Start       *time.Time
	End         *time.Time
	FileCount   int
	TotalSizeMB float64
}

// MoveKind tags a relocation performed by the reorganizer.
type MoveKind string

const (
	MoveDump MoveKind = "dump"
	MoveTail MoveKind = "tail"
)

// MoveRecord is one completed relocation.
type MoveRecord struct {
	Kind   MoveKind
	Source string
	Dest   string
}

// ScanReport is the outcome of one integrity scan: the captured
// statistics plus every relocation performed. It is what the reporter
// renders and what the catalog persists.
type ScanReport struct {
	Root           string
	ScannedAt      time.Time
	FileCount      int
	TotalSizeBytes int64
	ThresholdMB    float64
	Days           []DaySummary
	CorruptedDates []time.Time
	Moves          []MoveRecord
}

// IsCorrupted reports whether the given day is in the flagged set.
func (s *ScanReport) IsCorrupted(date time.Time) bool {
	d := DateOf(date)
	for _, c := range s.CorruptedDates {
		if c.Equal(d) {
			return true
		}
	}
	return false
}

// ChartStyle selects how the day series is rendered. Unrecognized
// values are rejected when flags are parsed, never at render time.
type ChartStyle int

const (
	StyleLines ChartStyle = iota
	StyleBars
	StylePoints
)

func ParseChartStyle(s string) (ChartStyle, error) {
	switch strings.ToLower(s) {
	case "lines":
		return StyleLines, nil
	case "bars":
		return StyleBars, nil
	case "points":
		return StylePoints, nil
	}
	return 0, fmt.Errorf("unknown chart style %q (want lines, bars or points)", s)
}

func (c ChartStyle) String() string {
	switch c {
	case StyleLines:
		return "lines"
	case StyleBars:
		return "bars"
	case StylePoints:
		return "points"
	}
	return "unknown"
}

// Parallelism is the resolved worker count for one invocation. It is a
// value, not a pool: each phase builds its own bounded group from it and
// tears it down on every exit path.
type Parallelism int

// ParseParallelism resolves a -workers flag value. "auto" means one
// worker per core minus one, "off" disables fan-out entirely.
func ParseParallelism(s string) (Parallelism, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		n := runtime.NumCPU() - 1
		if n < 1 {
			n = 1
		}
		return Parallelism(n), nil
	case "off", "disabled":
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid worker count %q (want a positive integer, auto or off)", s)
	}
	return Parallelism(n), nil
}

func (p Parallelism) Workers() int { return int(p) }

// ProgressStats tracks scan progress across workers.
type ProgressStats struct {
	ScannedFiles int64
	ScannedBytes int64
	MovedFiles   int64
	StartTime    time.Time
}

func NewProgressStats() *ProgressStats {
	return &ProgressStats{StartTime: time.Now()}
}

func (s *ProgressStats) AddFile(sizeBytes int64) {
	atomic.AddInt64(&s.ScannedFiles, 1)
	atomic.AddInt64(&s.ScannedBytes, sizeBytes)
}

func (s *ProgressStats) AddMove() {
	atomic.AddInt64(&s.MovedFiles, 1)
}

func (s *ProgressStats) Snapshot() (files, bytes, moved int64) {
	return atomic.LoadInt64(&s.ScannedFiles),
		atomic.LoadInt64(&s.ScannedBytes),
		atomic.LoadInt64(&s.MovedFiles)
}
