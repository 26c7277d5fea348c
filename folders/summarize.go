// Package folders implements the per-folder range summary: for every
// folder of a recording tree, the sensor identity, file count, storage
// volume, and covered date range. Unlike the integrity scan, the
// filename-embedded capture time is authoritative here; modification
// times are not consulted.
package folders

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/panchorivasf/tidyacoustics/models"
	"github.com/panchorivasf/tidyacoustics/scanner"
)

// Summarizer walks a tree and produces one FolderSummary per subfolder.
// It never mutates the tree.
type Summarizer struct {
	Extensions map[string]struct{}
	Workers    models.Parallelism
	Log        *zap.Logger
}

func NewSummarizer(workers models.Parallelism, log *zap.Logger) *Summarizer {
	return &Summarizer{
		Extensions: scanner.DefaultExtensions(),
		Workers:    workers,
		Log:        log,
	}
}

// Summarize returns one row per subfolder of root, sorted by path.
// Folders with zero matching files still produce a row with zero counts
// and nil identity/range fields: consumers depend on seeing the full
// folder enumeration.
func (s *Summarizer) Summarize(ctx context.Context, root string) ([]models.FolderSummary, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			s.Log.Warn("error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]models.FolderSummary, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers.Workers())
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := s.summarizeOne(dir)
			if err != nil {
				return err
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].FolderPath < summaries[j].FolderPath
	})
	return summaries, nil
}

// summarizeOne enumerates a single level of one folder.
func (s *Summarizer) summarizeOne(dir string) (models.FolderSummary, error) {
	sum := models.FolderSummary{FolderPath: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return sum, fmt.Errorf("cannot list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := s.Extensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.Log.Warn("cannot stat file, skipping",
				zap.String("path", filepath.Join(dir, name)), zap.Error(err))
			continue
		}
		sum.FileCount++
		sum.TotalSizeMB += float64(info.Size()) / models.BytesPerMB

		sensor, ts, ok := scanner.ParseName(name)
		if !ok {
			continue
		}
		if sum.SensorID == nil {
			sum.SensorID = &sensor
		}
		t := ts
		if sum.Start == nil || t.Before(*sum.Start) {
			sum.Start = &t
		}
		if sum.End == nil || t.After(*sum.End) {
			sum.End = &t
		}
	}
	return sum, nil
}
