package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/panchorivasf/tidyacoustics/models"
)

// ErrNoFilesFound aborts a run before any statistic is computed or any
// file is touched.
var ErrNoFilesFound = errors.New("no matching audio files found")

// Destination folders created by the reorganizer. The walker skips them
// so a rescan of an already-tidied root does not count relocated files.
var managedDirs = map[string]struct{}{
	"dump": {},
	"tail": {},
}

// Indexer walks a recording tree and captures one FileRecord per audio
// file. It never mutates the tree.
type Indexer struct {
	Extensions map[string]struct{}
	Recurse    bool
	Workers    models.Parallelism
	Log        *zap.Logger

	// FileHook, when set, is called once per captured record from a
	// worker goroutine. Used for progress accounting.
	FileHook func(models.FileRecord)
}

// DefaultExtensions covers the recorder formats the pipelines handle.
func DefaultExtensions() map[string]struct{} {
	return map[string]struct{}{
		".wav":  {},
		".wac":  {},
		".flac": {},
	}
}

func NewIndexer(recurse bool, workers models.Parallelism, log *zap.Logger) *Indexer {
	return &Indexer{
		Extensions: DefaultExtensions(),
		Recurse:    recurse,
		Workers:    workers,
		Log:        log,
	}
}

// Index scans root and returns the captured records sorted by path.
// Sizes and modification times are read exactly once, here; downstream
// stages operate purely on the returned snapshot.
func (ix *Indexer) Index(ctx context.Context, root string) ([]models.FileRecord, error) {
	paths, err := ix.enumerate(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFilesFound, root)
	}

	// Workers fill disjoint slots; the only shared step is the final
	// compaction after the group is done.
	records := make([]*models.FileRecord, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.Workers.Workers())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := ix.capture(path)
			if err != nil {
				ix.Log.Warn("cannot stat file, skipping",
					zap.String("path", path), zap.Error(err))
				return nil
			}
			records[i] = rec
			if ix.FileHook != nil {
				ix.FileHook(*rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.FileRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFilesFound, root)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (ix *Indexer) capture(path string) (*models.FileRecord, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	name := info.Name()
	rec := &models.FileRecord{
		Path:       path,
		Name:       name,
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
	}
	if sensor, ts, ok := ParseName(name); ok {
		rec.SensorID = &sensor
		rec.Timestamp = &ts
	}
	return rec, nil
}

// enumerate lists candidate file paths under root, honoring the recurse
// flag, the extension set and hidden-file attributes.
func (ix *Indexer) enumerate(ctx context.Context, root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("cannot access scan root: %w", err)
	}

	var paths []string
	if !ix.Recurse {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("cannot list scan root: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !ix.wanted(filepath.Join(root, e.Name()), e.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(root, e.Name()))
		}
		return paths, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			ix.Log.Warn("error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, managed := managedDirs[d.Name()]; managed || isHidden(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if ix.wanted(path, d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (ix *Indexer) wanted(path, name string) bool {
	if isHidden(path, name) {
		return false
	}
	_, ok := ix.Extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func isHidden(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return platformHidden(path)
}
