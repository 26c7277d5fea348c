// Package app holds the scoped run context shared by the command
// front-ends: cancellation, progress stats and a cleanup that runs
// exactly once on every exit path.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/panchorivasf/tidyacoustics/models"
)

type RunContext struct {
	Context context.Context
	Cancel  context.CancelFunc
	Log     *zap.Logger
	Stats   *models.ProgressStats

	cleanup sync.Once
}

func NewRunContext(parent context.Context, log *zap.Logger) *RunContext {
	ctx, cancel := context.WithCancel(parent)
	return &RunContext{
		Context: ctx,
		Cancel:  cancel,
		Log:     log,
		Stats:   models.NewProgressStats(),
	}
}

// PerformCleanup cancels outstanding work and flushes the logger. Safe
// to call from multiple exit paths; only the first call acts.
func (rc *RunContext) PerformCleanup() {
	rc.cleanup.Do(func() {
		rc.Cancel()
		_ = rc.Log.Sync()
	})
}

// SetupSignalHandling wires SIGINT/SIGTERM to cooperative cancellation.
// A second signal within five seconds forces an immediate exit.
func SetupSignalHandling(rc *RunContext) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var forceQuit atomic.Bool

	go func() {
		for sig := range sigChan {
			rc.Log.Info("received signal", zap.Stringer("signal", sig))
			if forceQuit.Load() {
				rc.Log.Warn("forcing immediate shutdown")
				os.Exit(1)
			}

			forceQuit.Store(true)
			rc.Log.Info("cancelling run, press Ctrl+C again to force quit")
			rc.Cancel()

			go func() {
				time.Sleep(5 * time.Second)
				forceQuit.Store(false)
			}()
		}
	}()
}
