package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/squadbid/storefront/internal/app/storage"
	"github.com/squadbid/storefront/internal/app/system"
	"github.com/squadbid/storefront/pkg/logger"
)

// Reconciler periodically re-reports journal records where a payment was
// captured but no order exists, so the partial failure cannot be forgotten
// once the original error dialog is dismissed.
type Reconciler struct {
	journal  storage.CheckoutJournal
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*Reconciler)(nil)

// NewReconciler creates a reconciler over the journal.
func NewReconciler(journal storage.CheckoutJournal, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewDefault("checkout-reconciler")
	}
	return &Reconciler{
		journal:  journal,
		interval: time.Minute,
		log:      log,
	}
}

// WithInterval overrides the polling interval. Call before Start.
func (r *Reconciler) WithInterval(d time.Duration) *Reconciler {
	if d > 0 {
		r.interval = d
	}
	return r
}

func (r *Reconciler) Name() string { return "checkout-reconciler" }

func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("checkout reconciler started")
	return nil
}

func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (r *Reconciler) tick(ctx context.Context) {
	records, err := r.journal.ListUnreconciled(ctx)
	if err != nil {
		r.log.WithError(err).Warn("list unreconciled checkout records")
		return
	}
	for _, rec := range records {
		r.log.WithField("record_id", rec.ID).
			WithField("amount_minor", rec.AmountMinor).
			WithField("captured_at", rec.CreatedAt).
			Warn("captured payment without an order awaits reconciliation")
	}
}

// MarkReconciled flags a partial-failure record as manually resolved.
func (r *Reconciler) MarkReconciled(ctx context.Context, recordID string) error {
	rec, err := r.journal.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	rec.Reconciled = true
	_, err = r.journal.UpdateRecord(ctx, rec)
	return err
}
