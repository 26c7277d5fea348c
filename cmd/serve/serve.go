package serve

import (
	"context"
	"flag"
	"net/http"

	"github.com/google/subcommands"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/api"
	"github.com/panchorivasf/tidyacoustics/db"
)

type Command struct {
	dbPath string
	port   string
}

func (*Command) Name() string     { return "serve" }
func (*Command) Synopsis() string { return "Start HTTP server over the scan catalog" }
func (*Command) Usage() string {
	return `serve -db <catalog> [-port <port>]:
  Start an HTTP server that provides REST API access to recorded scans,
  day summaries, moves and folder summaries.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "catalog database file path (required)")
	f.StringVar(&c.port, "port", "8080", "port to listen on")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dbPath == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	database, err := db.SetupDatabase(c.dbPath, logger)
	if err != nil {
		logger.Error("failed to setup catalog", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer database.Close()

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h := api.NewHandler(database)

	e.GET("/api/scans", h.ListScans)
	e.GET("/api/scan", h.GetScan)
	e.GET("/api/scan/days", h.GetDaySummaries)
	e.GET("/api/scan/corrupted", h.GetCorruptedDates)
	e.GET("/api/scan/moves", h.GetMoves)
	e.GET("/api/folder-scans", h.ListFolderScans)
	e.GET("/api/folder-scan/folders", h.GetFolderSummaries)

	logger.Info("starting server", zap.String("port", c.port))
	if err := e.Start(":" + c.port); err != nil && err != http.ErrServerClosed {
		logger.Error("failed to start server", zap.Error(err))
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
