package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/plantops/pkg/utils/logging"
)

// TipRefresher re-fetches the cached care tips of every species in the garden
type TipRefresher interface {
	RefreshTips(ctx context.Context) error
}

// TipRefreshWorker keeps the care tip cache warm in the background
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - The tip cache is process-local, so each instance refreshes its own copy
type TipRefreshWorker struct {
	refresher TipRefresher
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewTipRefreshWorker creates a new worker refreshing tips every interval
func NewTipRefreshWorker(refresher TipRefresher, interval time.Duration) *TipRefreshWorker {
	return &TipRefreshWorker{
		refresher: refresher,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop without blocking
func (w *TipRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("Tip refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *TipRefreshWorker) Stop() {
	logging.Default().Info("Tip refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Tip refresh worker stopped")
}

func (w *TipRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Tip refresh worker context cancelled")
			return
		}
	}
}

func (w *TipRefreshWorker) refresh(ctx context.Context) {
	startTime := time.Now()
	if err := w.refresher.RefreshTips(ctx); err != nil {
		// stale tips stay cached until the next round
		logging.Default().Error("Tip refresh failed (will retry next interval)",
			"error", err.Error())
		return
	}
	logging.Default().Info("Tip refresh completed",
		"duration", time.Since(startTime).String())
}
