// services/recorder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chain-notes-system/models"
)

// DefaultSigningTimeout bounds the only user-facing blocking wait: the
// wallet popup. Past this the operation fails with ErrSigningTimeout.
const DefaultSigningTimeout = 90 * time.Second

// NoteDraft carries the note fields an operation records on chain.
type NoteDraft struct {
	NoteID   string `json:"note_id"` // empty when the backend has not assigned one yet
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// OperationRecorder orchestrates one logical note operation: build the
// metadata payload, submit it through the wallet signer, append an
// optimistic pending ledger entry and kick off fee resolution. The call
// returns as soon as the chain accepts submission; confirmation is the
// monitor's job. Callers gate their own backend note write on this
// succeeding (pay-then-persist).
type OperationRecorder struct {
	Session *SessionService
	Signer  WalletSigner
	Ledger  LedgerStore
	Fees    *FeeResolver

	SigningTimeout time.Duration
}

func NewOperationRecorder(session *SessionService, signer WalletSigner, ledger LedgerStore, fees *FeeResolver) *OperationRecorder {
	return &OperationRecorder{
		Session:        session,
		Signer:         signer,
		Ledger:         ledger,
		Fees:           fees,
		SigningTimeout: DefaultSigningTimeout,
	}
}

func (r *OperationRecorder) RecordCreate(ctx context.Context, draft NoteDraft) (*models.TransactionRecord, error) {
	return r.record(ctx, models.OpNoteCreate, draft)
}

func (r *OperationRecorder) RecordUpdate(ctx context.Context, noteRef string, changes NoteDraft) (*models.TransactionRecord, error) {
	changes.NoteID = noteRef
	return r.record(ctx, models.OpNoteUpdate, changes)
}

func (r *OperationRecorder) RecordDelete(ctx context.Context, noteRef, title string) (*models.TransactionRecord, error) {
	return r.record(ctx, models.OpNoteDelete, NoteDraft{NoteID: noteRef, Title: title})
}

// RecordManual appends an off-chain bookkeeping entry. No signer involved:
// the entry is terminal (status recorded) with a locally supplied amount.
func (r *OperationRecorder) RecordManual(note, title, category string, lovelace int64) (*models.TransactionRecord, error) {
	addr, err := r.Session.ActiveAddress()
	if err != nil {
		return nil, err
	}

	rec := &models.TransactionRecord{
		WalletAddress: addr,
		Type:          models.TxTypeRecorded,
		Amount:        models.KnownFee(lovelace),
		Network:       r.Session.ActiveNetwork(),
		Status:        models.StatusRecorded,
		FeeSource:     models.FeeSourceLocal,
		Note:          note,
		NoteTitle:     title,
		Category:      category,
	}
	if err := r.Ledger.Append(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *OperationRecorder) record(ctx context.Context, operation string, draft NoteDraft) (*models.TransactionRecord, error) {
	sess, err := r.Session.RequireFull()
	if err != nil {
		return nil, err
	}

	payload := BuildNotePayload(operation, draft.NoteID, draft.Title, draft.Content)

	unsignedTx, err := r.Signer.BuildMetadataTx(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	signedTx, err := r.signWithTimeout(ctx, unsignedTx)
	if err != nil {
		return nil, err
	}

	txHash, err := r.Signer.SubmitTx(ctx, signedTx)
	if err != nil {
		// network rejected the signed tx — no ledger entry is created, the
		// caller must not assume a pending record exists
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	rec := &models.TransactionRecord{
		WalletAddress: sess.Address,
		Type:          models.TxTypeSent,
		Amount:        models.Fee{}, // unknown until the indexer sees the tx
		Operation:     operation,
		TxHash:        &txHash,
		Network:       sess.Network,
		Status:        models.StatusPending,
		FeeSource:     models.FeeSourceEstimated,
		NoteTitle:     SanitizeTitle(draft.Title),
		Note:          draft.Content,
		Category:      draft.Category,
	}
	if draft.NoteID != "" {
		rec.NoteID = &draft.NoteID
	}

	if err := r.Ledger.Append(rec); err != nil {
		log.Printf("❌ [RECORDER] tx %s submitted but ledger append failed: %v", txHash, err)
		return nil, err
	}
	log.Printf("📝 [RECORDER] %s submitted as %s (pending)", operation, txHash)

	// fire-and-forget: fee backfill and balance refresh run against the
	// persisted ledger, detached from the request context
	go r.Fees.ResolveRecord(context.Background(), rec.ID)
	go func() {
		if err := r.Session.RefreshBalance(context.Background()); err != nil {
			log.Printf("⚠️ [RECORDER] balance refresh failed: %v", err)
		}
	}()

	return rec, nil
}

func (r *OperationRecorder) signWithTimeout(ctx context.Context, unsignedTx string) (string, error) {
	signCtx, cancel := context.WithTimeout(ctx, r.SigningTimeout)
	defer cancel()

	signedTx, err := r.Signer.SignTx(signCtx, unsignedTx, true)
	switch {
	case err == nil:
		return signedTx, nil
	case errors.Is(err, ErrUserRejected):
		return "", ErrUserRejected
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(signCtx.Err(), context.DeadlineExceeded):
		return "", ErrSigningTimeout
	default:
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
}
