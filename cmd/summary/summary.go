package summary

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/app"
	"github.com/panchorivasf/tidyacoustics/db"
	"github.com/panchorivasf/tidyacoustics/folders"
	"github.com/panchorivasf/tidyacoustics/models"
)

type Command struct {
	root    string
	workers string
	dbPath  string
}

func (*Command) Name() string     { return "summary" }
func (*Command) Synopsis() string { return "Summarize sensor, date range and volume per folder" }
func (*Command) Usage() string {
	return `summary -root <directory> [-workers N|auto|off] [-db <catalog>]:
  Walk every subfolder of a recording tree and print one row per folder with
  the sensor id, covered date range, file count and total size. Performs no
  file mutation.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.root, "root", "", "directory tree to summarize (required)")
	f.StringVar(&c.workers, "workers", "auto", "worker count: a number, auto (cores-1) or off")
	f.StringVar(&c.dbPath, "db", "", "optional catalog database to record the run")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.root == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return subcommands.ExitFailure
	}

	workers, err := models.ParseParallelism(c.workers)
	if err != nil {
		logger.Error("invalid flags", zap.Error(err))
		return subcommands.ExitUsageError
	}

	rc := app.NewRunContext(ctx, logger)
	defer rc.PerformCleanup()
	app.SetupSignalHandling(rc)

	start := time.Now()
	s := folders.NewSummarizer(workers, logger)
	sums, err := s.Summarize(rc.Context, c.root)
	if err != nil {
		logger.Error("summary failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	printTable(sums)
	logger.Info("summary complete",
		zap.Int("folders", len(sums)),
		zap.Duration("elapsed", time.Since(start)))

	if c.dbPath != "" {
		catalog, derr := db.SetupDatabase(c.dbPath, logger)
		if derr != nil {
			logger.Error("cannot open catalog", zap.Error(derr))
			return subcommands.ExitFailure
		}
		defer catalog.Close()

		id, derr := db.RecordFolderSummaries(rc.Context, catalog, c.root, start.Unix(), sums)
		if derr != nil {
			logger.Error("cannot record summary", zap.Error(derr))
			return subcommands.ExitFailure
		}
		logger.Info("summary recorded", zap.Int64("folder_scan_id", id))
	}

	return subcommands.ExitSuccess
}

func printTable(sums []models.FolderSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tSENSOR\tSTART\tEND\tFILES\tSIZE (MB)")
	for _, s := range sums {
		sensor, start, end := "-", "-", "-"
		if s.SensorID != nil {
			sensor = *s.SensorID
		}
		if s.Start != nil {
			start = s.Start.Format("2006-01-02 15:04:05")
		}
		if s.End != nil {
			end = s.End.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.1f\n",
			s.FolderPath, sensor, start, end, s.FileCount, s.TotalSizeMB)
	}
	w.Flush()
}
