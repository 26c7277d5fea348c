package migrate

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/db"
)

type Command struct {
	dbPath string
}

func (*Command) Name() string     { return "migrate" }
func (*Command) Synopsis() string { return "Run catalog database migrations" }
func (*Command) Usage() string {
	return `migrate -db <catalog>:
  Run schema migrations on the specified catalog database.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "catalog database file path (required)")
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

	logger.Info("running catalog migrations", zap.String("db", c.dbPath))
	if err := db.RunMigrations(c.dbPath); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		return subcommands.ExitFailure
	}
	logger.Info("catalog migrations completed")

	return subcommands.ExitSuccess
}
