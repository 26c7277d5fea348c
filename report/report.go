// Package report renders the artifacts of an integrity scan: the
// two-section text log and the day-series chart.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/panchorivasf/tidyacoustics/models"
)

const dateLayout = "2006-01-02"

// FormatLog builds the text artifact: the rounded median line, then the
// corrupted-date section, one ISO date per line. An empty flagged set is
// written out explicitly rather than omitted.
func FormatLog(rep *models.ScanReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Median file size: %.0f MB\n", rep.ThresholdMB)
	b.WriteString("Corrupted dates:\n")
	if len(rep.CorruptedDates) == 0 {
		b.WriteString("(none)\n")
		return b.String()
	}
	for _, d := range rep.CorruptedDates {
		b.WriteString(d.Format(dateLayout))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteLog persists the text artifact at path.
func WriteLog(path string, rep *models.ScanReport) error {
	if err := os.WriteFile(path, []byte(FormatLog(rep)), 0644); err != nil {
		return fmt.Errorf("cannot write scan log: %w", err)
	}
	return nil
}

// ConsoleSummary is the one-line human summary printed at the end of a
// run.
func ConsoleSummary(rep *models.ScanReport, elapsed time.Duration) string {
	return fmt.Sprintf("scanned %d files (%s), median %.1f MB, %d corrupted dates, %d files moved in %v",
		rep.FileCount,
		humanize.Bytes(uint64(rep.TotalSizeBytes)),
		rep.ThresholdMB,
		len(rep.CorruptedDates),
		len(rep.Moves),
		elapsed.Round(time.Millisecond),
	)
}
