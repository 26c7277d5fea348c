// Package stats reduces a scanned file snapshot into per-day summaries
// and the global median threshold. Everything here is pure: the snapshot
// is never re-read from disk, so results are insensitive to filesystem
// changes after the scan phase.
package stats

import (
	"sort"
	"time"

	"github.com/panchorivasf/tidyacoustics/models"
)

// Aggregate groups records by the calendar day of their modification
// time and returns one summary per day, sorted by date, plus the global
// threshold in MB.
//
// Grouping deliberately uses ModifiedAt, not the filename-embedded
// capture timestamp; the two can disagree and the folder summarizer uses
// the opposite choice. Records with an unparseable name are excluded
// from grouping but still feed the median and file totals.
func Aggregate(records []models.FileRecord) ([]models.DaySummary, float64) {
	type acc struct {
		sumMB float64
		count int
	}
	byDay := make(map[time.Time]*acc)
	for i := range records {
		rec := &records[i]
		if !rec.Parsed() {
			continue
		}
		day := models.DateOf(rec.ModifiedAt)
		a := byDay[day]
		if a == nil {
			a = &acc{}
			byDay[day] = a
		}
		a.sumMB += rec.SizeMB()
		a.count++
	}

	days := make([]models.DaySummary, 0, len(byDay))
	for day, a := range byDay {
		days = append(days, models.DaySummary{
			Date:       day,
			MeanSizeMB: a.sumMB / float64(a.count),
			FileCount:  a.count,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	return days, ThresholdMB(records)
}

// ThresholdMB is the median of all raw file sizes in the snapshot,
// independent of day grouping, expressed in MB.
func ThresholdMB(records []models.FileRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sizes := make([]int64, len(records))
	for i := range records {
		sizes[i] = records[i].SizeBytes
	}
	return medianBytes(sizes) / models.BytesPerMB
}

// medianBytes is the exact statistical median: the middle value for odd
// lengths, the mean of the two middle values for even lengths.
func medianBytes(sizes []int64) float64 {
	sorted := make([]int64, len(sizes))
	copy(sorted, sizes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// IsCorrupted flags a day whose mean size falls strictly below the
// threshold. A day exactly at the median is healthy.
//
// This is a single-pass heuristic, not a significance test: a heavily
// skewed size distribution can flag days that are merely smaller than
// the bulk of the corpus. That sensitivity is a documented limitation
// of the detector, matched on purpose.
func IsCorrupted(day models.DaySummary, thresholdMB float64) bool {
	return day.MeanSizeMB < thresholdMB
}

// CorruptedDates returns the flagged dates in ascending order.
func CorruptedDates(days []models.DaySummary, thresholdMB float64) []time.Time {
	var dates []time.Time
	for _, d := range days {
		if IsCorrupted(d, thresholdMB) {
			dates = append(dates, d.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
