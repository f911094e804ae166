package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Reconciler runs SyncWorker.Reconcile once at start and then every interval.
type Reconciler struct {
	worker   *SyncWorker
	interval time.Duration

	mu      sync.Mutex
	running bool
}

func NewReconciler(worker *SyncWorker, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{worker: worker, interval: interval}
}

// Run blocks until ctx is cancelled. Failed passes are logged and retried on
// the next tick.
func (r *Reconciler) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("reconciler is already running")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	slog.InfoContext(ctx, "Reconciler started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	if _, err := r.worker.Reconcile(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Reconciliation failed", "error", err)
	}
}

// IsRunning returns whether Run is active
func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
