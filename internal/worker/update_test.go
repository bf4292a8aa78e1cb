package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/btcdash/internal/jobs"
)

type mockUpdater struct {
	callCount atomic.Int32
	err       error
}

func (m *mockUpdater) Run(_ context.Context) (jobs.UpdateResult, error) {
	m.callCount.Add(1)
	return jobs.UpdateResult{}, m.err
}

func TestUpdateWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockUpdater{}
	w := NewUpdateWorker(mock, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial update + some ticks
	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}

func TestUpdateWorkerKeepsRunningAfterFailure(t *testing.T) {
	mock := &mockUpdater{err: jobs.ErrNoData}
	w := NewUpdateWorker(mock, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2 after failures", got)
	}
}

type blockingUpdater struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingUpdater) Run(_ context.Context) (jobs.UpdateResult, error) {
	b.started <- struct{}{}
	<-b.release
	return jobs.UpdateResult{}, nil
}

func TestUpdateWorkerStartWaitsForInFlightUpdate(t *testing.T) {
	updater := &blockingUpdater{started: make(chan struct{}, 1), release: make(chan struct{})}
	w := NewUpdateWorker(updater, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := w.Start(ctx)

	<-updater.started
	cancel()

	select {
	case <-done:
		t.Fatal("worker exited while an update was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(updater.release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after the update finished")
	}
}
