// services/sync_bridge.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"chain-notes-system/models"
)

type PushResult string

const (
	PushOK      PushResult = "ok"
	PushSkipped PushResult = "skipped"
	PushFailed  PushResult = "failed"
)

// SyncBridge pushes confirmed, fee-resolved records to the backend cache.
// The cache dedupes on txHash; a 409 means another push (retried sweep,
// overlapping monitor tick, another device) got there first, and resolves
// to an update of the existing remote record rather than an error.
type SyncBridge struct {
	Backend ChainBackend
	Ledger  LedgerStore

	// BatchDelay is a fixed throttle between items when pushing a list, so
	// a large backlog does not hammer the backend.
	BatchDelay time.Duration

	inflight *InflightTracker
}

func NewSyncBridge(backend ChainBackend, ledger LedgerStore) *SyncBridge {
	return &SyncBridge{
		Backend:    backend,
		Ledger:     ledger,
		BatchDelay: 300 * time.Millisecond,
		inflight:   NewInflightTracker(),
	}
}

// Push sends one record to the backend cache. Records that fail any
// precondition (no hash, not confirmed, fee not chain-sourced, already
// synced) are skipped without a network call.
func (b *SyncBridge) Push(ctx context.Context, rec *models.TransactionRecord) (PushResult, error) {
	if !rec.SyncEligible() {
		return PushSkipped, nil
	}

	err := b.Backend.CreateTransaction(ctx, rec)
	if errors.Is(err, ErrBackendConflict) {
		// expected under concurrent/retried sync: converge on the existing
		// remote record instead of creating a duplicate
		remote, lookupErr := b.Backend.GetTransactionByHash(ctx, *rec.TxHash)
		if lookupErr != nil {
			return PushFailed, lookupErr
		}
		if updateErr := b.Backend.UpdateTransaction(ctx, remote.ID, rec); updateErr != nil {
			return PushFailed, updateErr
		}
	} else if err != nil {
		return PushFailed, err
	}

	if err := b.Ledger.UpdateFields(rec.ID, map[string]interface{}{"backend_synced": true}); err != nil {
		return PushFailed, err
	}
	return PushOK, nil
}

// PushRecord looks a record up and pushes it, deduplicating concurrent
// pushes of the same record. Failures are logged and left for the sweep.
func (b *SyncBridge) PushRecord(ctx context.Context, recordID string) {
	if !b.inflight.TryAcquire(recordID) {
		return
	}
	defer b.inflight.Release(recordID)

	rec, err := b.Ledger.Get(recordID)
	if err != nil {
		log.Printf("❌ [SYNC] record %s: %v", recordID, err)
		return
	}

	result, err := b.Push(ctx, rec)
	switch {
	case err != nil:
		log.Printf("⚠️ [SYNC] push of %s failed, sweep will retry: %v", recordID, err)
	case result == PushOK:
		log.Printf("✅ [SYNC] %s accepted by backend cache", recordID)
	}
}

// PropagateNoteStatus tells the backend about a record's status so the
// linked note reflects it. Marked done only after the backend accepts it;
// a failure leaves the record in the note-status backlog for the sweep.
func (b *SyncBridge) PropagateNoteStatus(ctx context.Context, rec *models.TransactionRecord) error {
	if rec.NoteID == nil || rec.TxHash == nil {
		return nil
	}
	if err := b.Backend.UpdateNoteStatus(ctx, *rec.NoteID, rec.Status, *rec.TxHash, rec.Network, rec.WalletAddress); err != nil {
		return err
	}
	return b.Ledger.UpdateFields(rec.ID, map[string]interface{}{"note_status_synced": true})
}

// PushBatch pushes a list with a fixed delay between items.
func (b *SyncBridge) PushBatch(ctx context.Context, records []models.TransactionRecord) {
	for i, rec := range records {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.BatchDelay):
			}
		}
		b.PushRecord(ctx, rec.ID)
	}
}
