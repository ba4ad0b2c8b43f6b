// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"chain-notes-system/models"
)

// Housekeeping is the periodic sweep behind the fast paths: any record whose
// fee never resolved gets another resolution attempt, any record that
// cleared every sync precondition but was never accepted by the backend gets
// pushed again, and any confirmed record whose linked note was never told
// gets its status re-propagated. Single-shot retries here; the per-call
// budgets live in the fee resolver itself.
type Housekeeping struct {
	Ledger LedgerStore
	Fees   *FeeResolver
	Sync   *SyncBridge

	// ItemDelay throttles consecutive fee retries within one sweep.
	ItemDelay time.Duration
}

func NewHousekeeping(ledger LedgerStore, fees *FeeResolver, sync *SyncBridge) *Housekeeping {
	return &Housekeeping{
		Ledger:    ledger,
		Fees:      fees,
		Sync:      sync,
		ItemDelay: 500 * time.Millisecond,
	}
}

// StartScheduler runs the sweep every two minutes until ctx is cancelled.
func (h *Housekeeping) StartScheduler(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(2*time.Minute),
		gocron.NewTask(func() {
			h.Sweep(ctx)
		}),
	); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	sched.Start()

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
	}()
	return nil
}

// Sweep runs one housekeeping pass.
func (h *Housekeeping) Sweep(ctx context.Context) {
	h.retryFees(ctx)
	h.retrySync(ctx)
	h.retryNoteStatus(ctx)
}

func (h *Housekeeping) retryFees(ctx context.Context) {
	records, err := h.Ledger.FeeUnresolved()
	if err != nil {
		log.Printf("⚠️ [SWEEP] fee backlog query failed: %v", err)
		return
	}

	for i, rec := range records {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.ItemDelay):
			}
		}
		// one attempt per sweep per record; the next sweep picks up
		// whatever is still unresolved
		retryOnce := *h.Fees
		retryOnce.Policy = RetryPolicy{MaxAttempts: 1, Delay: 0}
		retryOnce.ResolveRecord(ctx, rec.ID)
	}

	if len(records) > 0 {
		log.Printf("🧹 [SWEEP] retried fee resolution for %d record(s)", len(records))
	}
}

func (h *Housekeeping) retrySync(ctx context.Context) {
	records, err := h.Ledger.SyncBacklog()
	if err != nil {
		log.Printf("⚠️ [SWEEP] sync backlog query failed: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	// sanity: the backlog query already filters, but never let anything
	// without a chain-sourced fee near the push path
	eligible := make([]models.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if rec.SyncEligible() {
			eligible = append(eligible, rec)
		}
	}

	h.Sync.PushBatch(ctx, eligible)
	log.Printf("🧹 [SWEEP] pushed %d backlog record(s) to backend cache", len(eligible))
}

func (h *Housekeeping) retryNoteStatus(ctx context.Context) {
	records, err := h.Ledger.NoteStatusBacklog()
	if err != nil {
		log.Printf("⚠️ [SWEEP] note status backlog query failed: %v", err)
		return
	}

	for _, rec := range records {
		if err := h.Sync.PropagateNoteStatus(ctx, &rec); err != nil {
			log.Printf("⚠️ [SWEEP] note %s status propagation failed: %v", *rec.NoteID, err)
		}
	}
	if len(records) > 0 {
		log.Printf("🧹 [SWEEP] retried note status for %d record(s)", len(records))
	}
}
