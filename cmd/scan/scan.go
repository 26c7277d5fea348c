package scan

import (
	"context"
	"errors"
	"flag"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/app"
	"github.com/panchorivasf/tidyacoustics/db"
	"github.com/panchorivasf/tidyacoustics/models"
	"github.com/panchorivasf/tidyacoustics/pipeline"
	"github.com/panchorivasf/tidyacoustics/scanner"
)

type Command struct {
	root      string
	recurse   bool
	style     string
	logPath   string
	chartPath string
	workers   string
	dump      bool
	tail      bool
	dryRun    bool
	dbPath    string
}

func (*Command) Name() string     { return "scan" }
func (*Command) Synopsis() string { return "Scan a recording corpus and quarantine suspect files" }
func (*Command) Usage() string {
	return `scan -root <directory> [-style lines|bars|points] [-log <path>] [-chart <path>]
     [-workers N|auto|off] [-dump=false] [-tail=false] [-dry-run] [-db <catalog>] [-recurse]:
  Index a folder of sensor recordings, flag days whose mean file size falls
  below the corpus median, move dump-marked files into dump/ and undersized
  files from flagged days into tail/, then write the log and chart artifacts.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.root, "root", "", "directory to scan (required)")
	f.BoolVar(&c.recurse, "recurse", false, "descend into subdirectories")
	f.StringVar(&c.style, "style", "lines", "chart style: lines, bars or points")
	f.StringVar(&c.logPath, "log", "scan_report.txt", "output path for the text log")
	f.StringVar(&c.chartPath, "chart", "scan_chart.png", "output path for the chart image")
	f.StringVar(&c.workers, "workers", "auto", "worker count: a number, auto (cores-1) or off")
	f.BoolVar(&c.dump, "dump", true, "enable the dump quarantine phase")
	f.BoolVar(&c.tail, "tail", true, "enable the tail isolation phase")
	f.BoolVar(&c.dryRun, "dry-run", false, "log planned moves without performing them")
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

	// Reject bad configuration before touching the filesystem.
	style, err := models.ParseChartStyle(c.style)
	if err != nil {
		logger.Error("invalid flags", zap.Error(err))
		return subcommands.ExitUsageError
	}
	workers, err := models.ParseParallelism(c.workers)
	if err != nil {
		logger.Error("invalid flags", zap.Error(err))
		return subcommands.ExitUsageError
	}

	rc := app.NewRunContext(ctx, logger)
	defer rc.PerformCleanup()
	app.SetupSignalHandling(rc)

	p := pipeline.New(pipeline.Config{
		Root:       c.root,
		Recurse:    c.recurse,
		Workers:    workers,
		Style:      style,
		LogPath:    c.logPath,
		ChartPath:  c.chartPath,
		EnableDump: c.dump,
		EnableTail: c.tail,
		DryRun:     c.dryRun,
		Log:        logger,
		Stats:      rc.Stats,
	})

	rep, err := p.Run(rc.Context)
	if err != nil && rep == nil {
		if errors.Is(err, scanner.ErrNoFilesFound) {
			logger.Error("nothing to do", zap.Error(err))
		} else {
			logger.Error("scan failed", zap.Error(err))
		}
		return subcommands.ExitFailure
	}
	if err != nil {
		// Partial failure: the report exists but some moves failed.
		logger.Warn("scan finished with errors", zap.Error(err))
	}

	if c.dbPath != "" {
		catalog, derr := db.SetupDatabase(c.dbPath, logger)
		if derr != nil {
			logger.Error("cannot open catalog", zap.Error(derr))
			return subcommands.ExitFailure
		}
		defer catalog.Close()

		scanID, derr := db.RecordScan(rc.Context, catalog, rep)
		if derr != nil {
			logger.Error("cannot record scan", zap.Error(derr))
			return subcommands.ExitFailure
		}
		logger.Info("scan recorded", zap.Int64("scan_id", scanID))
	}

	if err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
