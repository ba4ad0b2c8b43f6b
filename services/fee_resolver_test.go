package services

import (
	"context"
	"testing"
	"time"

	"chain-notes-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Delay: time.Millisecond}
}

func TestResolveFeeExhaustsBudgetAndStaysUnknown(t *testing.T) {
	indexer := new(MockIndexerClient)
	indexer.On("TxInfo", mock.Anything, models.NetworkPreview, []string{"h1"}).
		Return([]TxStatusInfo{}, nil).Times(3)

	r := NewFeeResolver(indexer, new(MockLedgerStore), nil, fastPolicy(3))

	fee, err := r.ResolveFee(context.Background(), "h1", models.NetworkPreview)

	assert.NoError(t, err, "an exhausted budget is not an error")
	assert.False(t, fee.Known, "fee stays pending for the sweep to pick up")
	indexer.AssertExpectations(t)
}

func TestResolveFeeSucceedsMidBudget(t *testing.T) {
	feeLovelace := int64(190000)
	indexer := new(MockIndexerClient)
	indexer.On("TxInfo", mock.Anything, models.NetworkPreview, []string{"h1"}).
		Return([]TxStatusInfo{}, nil).Once()
	indexer.On("TxInfo", mock.Anything, models.NetworkPreview, []string{"h1"}).
		Return([]TxStatusInfo{{TxHash: "h1", Fee: &feeLovelace}}, nil).Once()

	r := NewFeeResolver(indexer, new(MockLedgerStore), nil, fastPolicy(5))

	fee, err := r.ResolveFee(context.Background(), "h1", models.NetworkPreview)

	assert.NoError(t, err)
	assert.True(t, fee.Known)
	assert.Equal(t, int64(190000), fee.Lovelace)
	indexer.AssertExpectations(t)
}

func TestResolveRecordStoresChainFee(t *testing.T) {
	hash := "abc123"
	rec := &models.TransactionRecord{
		ID:        "r1",
		TxHash:    &hash,
		Network:   models.NetworkPreview,
		Status:    models.StatusPending,
		FeeSource: models.FeeSourceEstimated,
	}
	feeLovelace := int64(190000)

	ledger := new(MockLedgerStore)
	ledger.On("Get", "r1").Return(rec, nil)
	ledger.On("UpdateFields", "r1", map[string]interface{}{
		"amount_lovelace": int64(190000),
		"fee_source":      models.FeeSourceBlockchain,
	}).Return(nil).Once()

	indexer := new(MockIndexerClient)
	indexer.On("TxInfo", mock.Anything, models.NetworkPreview, []string{hash}).
		Return([]TxStatusInfo{{TxHash: hash, Fee: &feeLovelace}}, nil).Once()

	r := NewFeeResolver(indexer, ledger, nil, fastPolicy(3))
	r.ResolveRecord(context.Background(), "r1")

	ledger.AssertExpectations(t)
	indexer.AssertExpectations(t)
}

func TestResolveRecordSkipsAlreadyResolved(t *testing.T) {
	hash := "abc123"
	rec := &models.TransactionRecord{
		ID:        "r1",
		TxHash:    &hash,
		Amount:    models.KnownFee(190000),
		FeeSource: models.FeeSourceBlockchain,
	}

	ledger := new(MockLedgerStore)
	ledger.On("Get", "r1").Return(rec, nil)

	indexer := new(MockIndexerClient)

	r := NewFeeResolver(indexer, ledger, nil, fastPolicy(3))
	r.ResolveRecord(context.Background(), "r1")

	indexer.AssertNotCalled(t, "TxInfo", mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything)
}

func TestResolveRecordDeduplicatesInFlight(t *testing.T) {
	ledger := new(MockLedgerStore)
	indexer := new(MockIndexerClient)
	r := NewFeeResolver(indexer, ledger, nil, fastPolicy(3))

	// another resolution already holds the record
	assert.True(t, r.inflight.TryAcquire("r1"))
	r.ResolveRecord(context.Background(), "r1")

	ledger.AssertNotCalled(t, "Get", mock.Anything)
	r.inflight.Release("r1")
}
