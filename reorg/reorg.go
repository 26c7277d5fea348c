// Package reorg performs the mutation phase of an integrity scan: dump
// quarantine and tail isolation. Both operate on the snapshot captured
// by the scan phase and run only after classification has finished.
package reorg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/panchorivasf/tidyacoustics/models"
)

const (
	DumpDirName = "dump"
	TailDirName = "tail"
)

// Reorganizer relocates files under Root. Per-file failures are
// collected and surfaced as one aggregate error after the whole batch
// has been attempted; a single bad file never aborts the phase.
type Reorganizer struct {
	Root    string
	Workers models.Parallelism
	DryRun  bool
	Log     *zap.Logger

	// MoveFn performs one relocation; tests swap it to observe ordering.
	MoveFn func(src, dst string) error
}

func New(root string, workers models.Parallelism, log *zap.Logger) *Reorganizer {
	return &Reorganizer{
		Root:    root,
		Workers: workers,
		Log:     log,
		MoveFn:  os.Rename,
	}
}

// IsDumpFile reports whether a filename carries the dump marker.
func IsDumpFile(name string) bool {
	return strings.Contains(strings.ToLower(name), "dump")
}

// QuarantineDumps moves every dump-marked file into the dump folder
// under Root. An empty selection is a logged no-op and creates nothing.
func (r *Reorganizer) QuarantineDumps(ctx context.Context, records []models.FileRecord) ([]models.MoveRecord, error) {
	var selected []models.FileRecord
	for _, rec := range records {
		if IsDumpFile(rec.Name) {
			selected = append(selected, rec)
		}
	}
	if len(selected) == 0 {
		r.Log.Info("no dump files found")
		return nil, nil
	}

	destDir := filepath.Join(r.Root, DumpDirName)
	if err := r.ensureDir(destDir); err != nil {
		return nil, err
	}

	var moved []models.MoveRecord
	var errs *multierror.Error
	failed := 0
	for _, rec := range selected {
		if err := ctx.Err(); err != nil {
			return moved, multierror.Append(errs, err).ErrorOrNil()
		}
		dest, err := r.move(rec.Path, destDir)
		if err != nil {
			errs = multierror.Append(errs, err)
			failed++
			continue
		}
		moved = append(moved, models.MoveRecord{Kind: models.MoveDump, Source: rec.Path, Dest: dest})
	}
	r.Log.Info("dump quarantine complete",
		zap.Int("moved", len(moved)), zap.Int("failed", failed))
	return moved, errs.ErrorOrNil()
}

// IsolateTail moves every record that is individually below the
// threshold AND whose day is in the corrupted set into the tail folder.
// The conjunction is strict: an undersized file on a healthy day stays,
// as does a large file on a corrupted day.
func (r *Reorganizer) IsolateTail(ctx context.Context, records []models.FileRecord, thresholdMB float64, corrupted []time.Time) ([]models.MoveRecord, error) {
	corruptedSet := make(map[time.Time]struct{}, len(corrupted))
	for _, d := range corrupted {
		corruptedSet[models.DateOf(d)] = struct{}{}
	}

	var selected []models.FileRecord
	for _, rec := range records {
		if _, bad := corruptedSet[models.DateOf(rec.ModifiedAt)]; !bad {
			continue
		}
		if rec.SizeMB() < thresholdMB {
			selected = append(selected, rec)
		}
	}
	if len(selected) == 0 {
		r.Log.Info("no tail files to isolate")
		return nil, nil
	}

	destDir := filepath.Join(r.Root, TailDirName)
	if err := r.ensureDir(destDir); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var moved []models.MoveRecord
	var errs *multierror.Error
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers.Workers())
	for _, rec := range selected {
		rec := rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dest, err := r.move(rec.Path, destDir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, err)
				failed++
				return nil
			}
			moved = append(moved, models.MoveRecord{Kind: models.MoveTail, Source: rec.Path, Dest: dest})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = multierror.Append(errs, err)
	}

	sort.Slice(moved, func(i, j int) bool { return moved[i].Source < moved[j].Source })
	r.Log.Info("tail isolation complete",
		zap.Int("moved", len(moved)), zap.Int("failed", failed))
	return moved, errs.ErrorOrNil()
}

func (r *Reorganizer) ensureDir(dir string) error {
	if r.DryRun {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return nil
}

// move relocates src into destDir, preserving the basename. An existing
// file at the destination is an error: the scan refuses to overwrite.
func (r *Reorganizer) move(src, destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(src))
	if r.DryRun {
		r.Log.Info("dry run, would move", zap.String("src", src), zap.String("dest", dest))
		return dest, nil
	}
	if _, err := os.Lstat(dest); err == nil {
		return "", fmt.Errorf("refusing to overwrite %s", dest)
	}
	if err := r.MoveFn(src, dest); err != nil {
		return "", fmt.Errorf("move %s: %w", src, err)
	}
	r.Log.Debug("moved file", zap.String("src", src), zap.String("dest", dest))
	return dest, nil
}
