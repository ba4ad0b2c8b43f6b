// services/interfaces.go
package services

import (
	"context"

	"chain-notes-system/models"
)

// LedgerStore is the per-wallet transaction ledger. All mutations go through
// UpdateFields so that concurrent writers (fee resolver, confirmation
// monitor, housekeeping sweep) merge at field level instead of replacing
// whole records and losing each other's updates.
type LedgerStore interface {
	Append(rec *models.TransactionRecord) error
	Get(id string) (*models.TransactionRecord, error)
	List(address, search, category string) ([]models.TransactionRecord, error)
	UpdateFields(id string, fields map[string]interface{}) error
	Remove(id, address string) error
	LinkNote(id, noteID string) error

	// PendingUnsynced spans all wallets: fee resolution for an already-fired
	// operation keeps running against the persisted ledger even after the
	// session that fired it disconnects.
	PendingUnsynced() ([]models.TransactionRecord, error)
	FeeUnresolved() ([]models.TransactionRecord, error)
	SyncBacklog() ([]models.TransactionRecord, error)
	NoteStatusBacklog() ([]models.TransactionRecord, error)
}

// TxStatusInfo is one result of a batched tx_info indexer lookup. The proxy
// normalizes Koios's stringified fee to numeric lovelace; a nil fee means
// the indexer knows the tx but not its fee yet.
type TxStatusInfo struct {
	TxHash      string `json:"tx_hash"`
	Fee         *int64 `json:"fee,omitempty"`
	BlockHeight int64  `json:"block_height"`
}

// AddressTx is one entry of an address transaction history lookup.
type AddressTx struct {
	TxHash      string `json:"tx_hash"`
	BlockHeight int64  `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

// IndexerClient is the read-only chain query service (Koios proxy). The
// network is selected per request, not per client.
type IndexerClient interface {
	AddressInfo(ctx context.Context, network, address string) (int64, error)
	TxInfo(ctx context.Context, network string, hashes []string) ([]TxStatusInfo, error)
	AddressTxs(ctx context.Context, network, address string) ([]AddressTx, error)
}

// RemoteTransaction is the backend cache's view of a pushed record.
type RemoteTransaction struct {
	ID            string  `json:"id"`
	TxHash        string  `json:"txHash"`
	WalletAddress string  `json:"walletAddress"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
}

// ChainBackend is the remote transaction-metadata cache plus the note status
// propagation endpoint. CreateTransaction returns ErrBackendConflict when
// the txHash already exists remotely.
type ChainBackend interface {
	CreateTransaction(ctx context.Context, rec *models.TransactionRecord) error
	GetTransactionByHash(ctx context.Context, txHash string) (*RemoteTransaction, error)
	UpdateTransaction(ctx context.Context, remoteID string, rec *models.TransactionRecord) error
	UpdateNoteStatus(ctx context.Context, noteID, status, txHash, network, walletAddress string) error
}

// SessionInfo is the read side of the wallet session that the ledger
// surface needs: whose ledger is visible, and on which network.
type SessionInfo interface {
	ActiveAddress() (string, error)
	ActiveNetwork() string
}

// WalletSigner is the external wallet capability. Building the unsigned
// metadata transaction is part of the same capability: construction and
// signing internals stay on the wallet side.
type WalletSigner interface {
	Enable(ctx context.Context, walletName string) error
	GetChangeAddress(ctx context.Context) (string, error)
	GetBalance(ctx context.Context) (int64, error)
	GetUtxos(ctx context.Context) ([]string, error)
	BuildMetadataTx(ctx context.Context, payload *MetadataPayload) (string, error)
	SignTx(ctx context.Context, unsignedTx string, partial bool) (string, error)
	SubmitTx(ctx context.Context, signedTx string) (string, error)
}
