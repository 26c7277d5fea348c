// Package pipeline orchestrates one integrity scan: index, aggregate,
// classify, reorganize, report. Phases are strictly sequential — the
// read-only phases complete in full before any file is moved, so the
// statistics always describe a consistent snapshot of the corpus.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/models"
	"github.com/panchorivasf/tidyacoustics/reorg"
	"github.com/panchorivasf/tidyacoustics/report"
	"github.com/panchorivasf/tidyacoustics/scanner"
	"github.com/panchorivasf/tidyacoustics/stats"
)

type Config struct {
	Root       string
	Recurse    bool
	Workers    models.Parallelism
	Style      models.ChartStyle
	LogPath    string
	ChartPath  string
	EnableDump bool
	EnableTail bool
	DryRun     bool
	Log        *zap.Logger

	// Stats, when set, receives progress updates; a fresh collector is
	// used otherwise.
	Stats *models.ProgressStats
}

// Pipeline wires the scan components for one invocation. The Indexer
// and Reorganizer are exported so front-ends and tests can attach
// progress hooks before Run.
type Pipeline struct {
	Cfg         Config
	Indexer     *scanner.Indexer
	Reorganizer *reorg.Reorganizer
	Stats       *models.ProgressStats
}

func New(cfg Config) *Pipeline {
	stats := cfg.Stats
	if stats == nil {
		stats = models.NewProgressStats()
	}
	p := &Pipeline{
		Cfg:         cfg,
		Indexer:     scanner.NewIndexer(cfg.Recurse, cfg.Workers, cfg.Log),
		Reorganizer: reorg.New(cfg.Root, cfg.Workers, cfg.Log),
		Stats:       stats,
	}
	p.Reorganizer.DryRun = cfg.DryRun
	p.Indexer.FileHook = func(rec models.FileRecord) { p.Stats.AddFile(rec.SizeBytes) }
	return p
}

// Run executes the pipeline. A scan-phase failure (including zero
// matching files) aborts before anything is written or moved. Per-file
// mutation failures do not abort: the remaining files are processed,
// both artifacts are still written, and the collected failures come
// back as the returned error alongside the report.
func (p *Pipeline) Run(ctx context.Context) (*models.ScanReport, error) {
	tracer := otel.Tracer("pipeline")
	ctx, span := tracer.Start(ctx, "IntegrityScan")
	defer span.End()
	span.SetAttributes(
		attribute.String("root", p.Cfg.Root),
		attribute.Int("workers", p.Cfg.Workers.Workers()),
	)

	log := p.Cfg.Log
	start := time.Now()

	// Phase 1: read-only scan. Sizes are captured exactly once here.
	scanCtx, scanSpan := tracer.Start(ctx, "scan")
	records, err := p.Indexer.Index(scanCtx, p.Cfg.Root)
	scanSpan.End()
	if err != nil {
		return nil, err
	}
	files, bytes, _ := p.Stats.Snapshot()
	log.Info("scan phase complete", zap.Int64("files", files), zap.Int64("bytes", bytes))

	// Phase 2: pure reduce over the snapshot.
	_, aggSpan := tracer.Start(ctx, "aggregate")
	days, thresholdMB := stats.Aggregate(records)
	corrupted := stats.CorruptedDates(days, thresholdMB)
	aggSpan.End()
	log.Info("aggregation complete",
		zap.Float64("median_mb", thresholdMB),
		zap.Int("days", len(days)),
		zap.Int("corrupted_days", len(corrupted)))

	rep := &models.ScanReport{
		Root:           p.Cfg.Root,
		ScannedAt:      start,
		FileCount:      len(records),
		ThresholdMB:    thresholdMB,
		Days:           days,
		CorruptedDates: corrupted,
	}
	for i := range records {
		rep.TotalSizeBytes += records[i].SizeBytes
	}

	// Mutation starts only after classification is final; a cancelled
	// context stops the run with the corpus untouched.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: reorganize. Failures are collected, not fatal. Files the
	// dump phase relocated are gone from their source paths, so the tail
	// phase selects only from what is still in place.
	var moveErrs *multierror.Error
	remaining := records
	if p.Cfg.EnableDump {
		mvCtx, mvSpan := tracer.Start(ctx, "quarantine-dumps")
		moved, err := p.Reorganizer.QuarantineDumps(mvCtx, records)
		mvSpan.End()
		rep.Moves = append(rep.Moves, moved...)
		if err != nil {
			moveErrs = multierror.Append(moveErrs, err)
		}
		remaining = withoutMoved(records, moved)
	}
	if p.Cfg.EnableTail {
		mvCtx, mvSpan := tracer.Start(ctx, "isolate-tail")
		moved, err := p.Reorganizer.IsolateTail(mvCtx, remaining, thresholdMB, corrupted)
		mvSpan.End()
		rep.Moves = append(rep.Moves, moved...)
		if err != nil {
			moveErrs = multierror.Append(moveErrs, err)
		}
	}

	for range rep.Moves {
		p.Stats.AddMove()
	}

	// Phase 4: artifacts. The text summary always lands before chart
	// rendering is attempted.
	if p.Cfg.LogPath != "" {
		if err := report.WriteLog(p.Cfg.LogPath, rep); err != nil {
			return rep, multierror.Append(moveErrs, err).ErrorOrNil()
		}
	}
	if p.Cfg.ChartPath != "" {
		if err := report.RenderChart(p.Cfg.ChartPath, days, p.Cfg.Style, rep.IsCorrupted); err != nil {
			return rep, multierror.Append(moveErrs, err).ErrorOrNil()
		}
	}

	log.Info("run complete", zap.String("summary", report.ConsoleSummary(rep, time.Since(start))))
	if moveErrs != nil {
		return rep, fmt.Errorf("reorganization finished with errors: %w", moveErrs.ErrorOrNil())
	}
	return rep, nil
}

// withoutMoved filters out the records whose source paths a previous
// phase already relocated.
func withoutMoved(records []models.FileRecord, moved []models.MoveRecord) []models.FileRecord {
	if len(moved) == 0 {
		return records
	}
	gone := make(map[string]struct{}, len(moved))
	for _, m := range moved {
		gone[m.Source] = struct{}{}
	}
	kept := make([]models.FileRecord, 0, len(records)-len(moved))
	for _, rec := range records {
		if _, ok := gone[rec.Path]; ok {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
