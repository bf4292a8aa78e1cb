package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/btcdash/internal/jobs"
)

// PriceUpdater refreshes the latest stored price.
type PriceUpdater interface {
	Run(ctx context.Context) (jobs.UpdateResult, error)
}

// UpdateWorker periodically runs the daily price refresh.
type UpdateWorker struct {
	updater  PriceUpdater
	interval time.Duration
}

// NewUpdateWorker creates a new UpdateWorker.
func NewUpdateWorker(updater PriceUpdater, interval time.Duration) *UpdateWorker {
	return &UpdateWorker{
		updater:  updater,
		interval: interval,
	}
}

// Start runs the update loop in a new goroutine. The returned channel is
// closed once the loop has exited, after any in-flight update finishes.
func (w *UpdateWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}

// Run starts the update loop. It blocks until the context is cancelled.
func (w *UpdateWorker) Run(ctx context.Context) {
	slog.Info("UpdateWorker: starting", "interval", w.interval)

	// Refresh immediately on startup
	w.update(ctx, "initial update")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("UpdateWorker: shutting down")
			return
		case <-ticker.C:
			w.update(ctx, "update")
		}
	}
}

func (w *UpdateWorker) update(ctx context.Context, what string) {
	result, err := w.updater.Run(ctx)
	if err != nil {
		slog.Error("UpdateWorker: "+what+" failed", "error", err)
		return
	}
	slog.Info("UpdateWorker: "+what+" completed", "date", result.Record.DateString())
}
