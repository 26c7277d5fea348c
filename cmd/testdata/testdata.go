package testdata

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type Command struct {
	outputDir string
}

func (*Command) Name() string     { return "testdata" }
func (*Command) Synopsis() string { return "Generate a synthetic recording corpus" }
func (*Command) Usage() string {
	return `testdata -out <directory>:
  Generate a sensor-named recording tree for exercising the scan and
  summary commands: several healthy days, one day of truncated files,
  a dump-marked file and a few unparseable names.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputDir, "out", "", "output directory path (required)")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.outputDir == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	if err := generate(c.outputDir); err != nil {
		logger.Error("failed to generate test data", zap.Error(err))
		return subcommands.ExitFailure
	}
	logger.Info("test corpus generated", zap.String("dir", c.outputDir))

	return subcommands.ExitSuccess
}

func generate(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	const sensor = "AM01"
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	// Three healthy days of full-length recordings, then one day of
	// truncated captures that the scan should flag.
	for day := 0; day < 4; day++ {
		size := 256 * 1024
		if day == 3 {
			size = 16 * 1024
		}
		for i := 0; i < 6; i++ {
			ts := base.AddDate(0, 0, day).Add(time.Duration(i) * time.Hour)
			name := fmt.Sprintf("%s_%s.wav", sensor, ts.Format("20060102_150405"))
			path := filepath.Join(outputDir, name)
			if err := writeSized(path, size, ts); err != nil {
				return err
			}
		}
	}

	// A dump-marked file and two names that do not follow the pattern.
	extras := []string{"AM01_memory_dump.wav", "readme.wav", "calibration-tone.flac"}
	for _, name := range extras {
		if err := writeSized(filepath.Join(outputDir, name), 4*1024, base); err != nil {
			return err
		}
	}

	// A second sensor in its own folder, for the summary command.
	subDir := filepath.Join(outputDir, "AM02")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", subDir, err)
	}
	for i := 0; i < 3; i++ {
		ts := base.AddDate(0, 0, i)
		name := fmt.Sprintf("AM02_%s.wav", ts.Format("20060102_150405"))
		if err := writeSized(filepath.Join(subDir, name), 128*1024, ts); err != nil {
			return err
		}
	}

	return nil
}

func writeSized(path string, size int, modTime time.Time) error {
	content := bytes.Repeat([]byte{0}, size)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	// Modification times drive the day grouping, so pin them.
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		return fmt.Errorf("failed to set times on %s: %w", path, err)
	}
	return nil
}
