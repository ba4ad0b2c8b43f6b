// services/fee_resolver.go
package services

import (
	"context"
	"log"
	"time"

	"chain-notes-system/models"
)

// RetryPolicy bounds a fixed-backoff polling loop. Kept as an explicit
// object so the bound is testable without waiting out the real budget.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultFeeRetryPolicy gives a freshly submitted transaction ~60s to show
// up in the indexer before the periodic sweep takes over.
var DefaultFeeRetryPolicy = RetryPolicy{MaxAttempts: 12, Delay: 5 * time.Second}

// FeeResolver backfills the real network fee of a submitted transaction by
// polling the indexer until it appears or the retry budget runs out.
type FeeResolver struct {
	Indexer  IndexerClient
	Ledger   LedgerStore
	Sync     *SyncBridge
	Policy   RetryPolicy
	inflight *InflightTracker
}

func NewFeeResolver(indexer IndexerClient, ledger LedgerStore, sync *SyncBridge, policy RetryPolicy) *FeeResolver {
	return &FeeResolver{
		Indexer:  indexer,
		Ledger:   ledger,
		Sync:     sync,
		Policy:   policy,
		inflight: NewInflightTracker(),
	}
}

// ResolveFee polls the indexer for txHash and returns the fee once known.
// An exhausted budget is not an error: the record simply stays "fee pending"
// until the housekeeping sweep retries it.
func (r *FeeResolver) ResolveFee(ctx context.Context, txHash, network string) (models.Fee, error) {
	for attempt := 1; attempt <= r.Policy.MaxAttempts; attempt++ {
		infos, err := r.Indexer.TxInfo(ctx, network, []string{txHash})
		if err != nil {
			log.Printf("⚠️ [FEE] attempt %d/%d for %s: %v", attempt, r.Policy.MaxAttempts, txHash, err)
		} else {
			for _, info := range infos {
				if info.TxHash == txHash && info.Fee != nil {
					return models.KnownFee(*info.Fee), nil
				}
			}
		}

		if attempt == r.Policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return models.Fee{}, ctx.Err()
		case <-time.After(r.Policy.Delay):
		}
	}
	log.Printf("⏳ [FEE] budget exhausted for %s, leaving fee pending", txHash)
	return models.Fee{}, nil
}

// ResolveRecord resolves the fee for one ledger record and stores it.
// Idempotent: records whose fee is already chain-sourced are skipped, and a
// record with a resolution already in flight is left to that resolution.
func (r *FeeResolver) ResolveRecord(ctx context.Context, recordID string) {
	if !r.inflight.TryAcquire(recordID) {
		return
	}
	defer r.inflight.Release(recordID)

	rec, err := r.Ledger.Get(recordID)
	if err != nil {
		log.Printf("❌ [FEE] record %s: %v", recordID, err)
		return
	}
	if rec.FeeSource == models.FeeSourceBlockchain || rec.TxHash == nil {
		return
	}

	fee, err := r.ResolveFee(ctx, *rec.TxHash, rec.Network)
	if err != nil || !fee.Known {
		return
	}

	if err := r.Ledger.UpdateFields(recordID, map[string]interface{}{
		"amount_lovelace": fee.Lovelace,
		"fee_source":      models.FeeSourceBlockchain,
	}); err != nil {
		log.Printf("❌ [FEE] failed to store fee for %s: %v", recordID, err)
		return
	}
	log.Printf("✅ [FEE] %s resolved to %s", *rec.TxHash, fee.Display())

	if r.Sync != nil {
		// no-op unless the record is already confirmed; the monitor pushes
		// after confirmation otherwise
		r.Sync.PushRecord(ctx, recordID)
	}
}
