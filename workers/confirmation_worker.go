// workers/confirmation_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"chain-notes-system/models"
	"chain-notes-system/services"
)

// ConfirmationWorker is the pending-confirmation monitor: a purely
// time-driven loop that checks every locally pending transaction against
// the indexer and promotes the ones the chain has picked up. Hashes the
// indexer keeps not knowing stay pending — there is deliberately no
// automatic demotion to failed.
type ConfirmationWorker struct {
	Ledger   services.LedgerStore
	Indexer  services.IndexerClient
	Sync     *services.SyncBridge
	Interval time.Duration
}

func NewConfirmationWorker(ledger services.LedgerStore, indexer services.IndexerClient, sync *services.SyncBridge) *ConfirmationWorker {
	return &ConfirmationWorker{
		Ledger:   ledger,
		Indexer:  indexer,
		Sync:     sync,
		Interval: 20 * time.Second,
	}
}

func (w *ConfirmationWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting confirmation monitor…")
	go w.run(ctx)
}

func (w *ConfirmationWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				// indexer hiccups are expected; skip this tick and retry on
				// the next interval
				log.Printf("⚠️ [MONITOR] tick skipped: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Confirmation monitor stopped")
			return
		}
	}
}

// Tick runs one monitor pass. All pending hashes of a network go to the
// indexer in a single batched call, which bounds request volume to one call
// per network per tick.
func (w *ConfirmationWorker) Tick(ctx context.Context) error {
	records, err := w.Ledger.PendingUnsynced()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	byNetwork := make(map[string][]models.TransactionRecord)
	for _, rec := range records {
		byNetwork[rec.Network] = append(byNetwork[rec.Network], rec)
	}

	for network, recs := range byNetwork {
		hashes := make([]string, 0, len(recs))
		for _, rec := range recs {
			hashes = append(hashes, *rec.TxHash)
		}

		infos, err := w.Indexer.TxInfo(ctx, network, hashes)
		if err != nil {
			return err
		}

		byHash := make(map[string]services.TxStatusInfo, len(infos))
		for _, info := range infos {
			byHash[info.TxHash] = info
		}

		for _, rec := range recs {
			info, found := byHash[*rec.TxHash]
			if !found {
				continue // not on chain yet, stays pending
			}
			w.confirm(ctx, rec, info)
		}
	}
	return nil
}

func (w *ConfirmationWorker) confirm(ctx context.Context, rec models.TransactionRecord, info services.TxStatusInfo) {
	fields := map[string]interface{}{"status": models.StatusConfirmed}
	if info.Fee != nil && rec.FeeSource != models.FeeSourceBlockchain {
		fields["amount_lovelace"] = *info.Fee
		fields["fee_source"] = models.FeeSourceBlockchain
	}

	if err := w.Ledger.UpdateFields(rec.ID, fields); err != nil {
		log.Printf("❌ [MONITOR] failed to confirm %s: %v", *rec.TxHash, err)
		return
	}
	log.Printf("✅ [MONITOR] %s confirmed at block %d", *rec.TxHash, info.BlockHeight)

	w.Sync.PushRecord(ctx, rec.ID)

	rec.Status = models.StatusConfirmed
	if rec.NoteID != nil {
		if err := w.Sync.PropagateNoteStatus(ctx, &rec); err != nil {
			log.Printf("⚠️ [MONITOR] note %s status propagation failed, sweep will retry: %v", *rec.NoteID, err)
		}
	}
}
