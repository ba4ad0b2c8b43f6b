// models/transaction_record.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	TxTypeSent     = "sent"
	TxTypeReceived = "received"
	TxTypeRecorded = "recorded" // off-chain bookkeeping only, no value transfer
)

const (
	OpNoteCreate = "note_create"
	OpNoteUpdate = "note_update"
	OpNoteDelete = "note_delete"
)

const (
	NetworkPreview = "preview"
	NetworkPreprod = "preprod"
	NetworkMainnet = "mainnet"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusRecorded  = "recorded"
)

const (
	FeeSourceLocal      = "local"
	FeeSourceEstimated  = "estimated"
	FeeSourceBlockchain = "blockchain"
)

const LovelacePerAda = 1_000_000

// ValidNetwork reports whether n names a supported chain environment.
func ValidNetwork(n string) bool {
	return n == NetworkPreview || n == NetworkPreprod || n == NetworkMainnet
}

// CanTransition enforces forward-only status movement: once a record is
// confirmed (or recorded) it never goes back to pending or drops to failed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusFailed
	default:
		// confirmed, failed and recorded are terminal
		return false
	}
}

// Fee is the network fee of a transaction. Unknown is a real state here:
// a freshly submitted transaction has no fee until the indexer sees it, and
// that must stay distinguishable from a zero fee, so the zero value of Fee
// means "not yet known" and serializes as JSON null.
type Fee struct {
	Known    bool
	Lovelace int64
}

func KnownFee(lovelace int64) Fee {
	return Fee{Known: true, Lovelace: lovelace}
}

// Ada converts from the indexer's smallest-unit representation.
func (f Fee) Ada() float64 {
	return float64(f.Lovelace) / LovelacePerAda
}

// Display renders the fee for the ledger view. Unknown fees render as a
// distinct "fee pending" marker, never as 0.
func (f Fee) Display() string {
	if !f.Known {
		return "fee pending"
	}
	return fmt.Sprintf("%.6f ADA", f.Ada())
}

func (f Fee) MarshalJSON() ([]byte, error) {
	if !f.Known {
		return []byte("null"), nil
	}
	return json.Marshal(f.Ada())
}

func (f *Fee) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Fee{}
		return nil
	}
	var ada float64
	if err := json.Unmarshal(data, &ada); err != nil {
		return err
	}
	// round, don't truncate: 0.190001 ADA must come back as 190001 lovelace
	*f = KnownFee(int64(math.Round(ada * LovelacePerAda)))
	return nil
}

// GormDataType / GormDBDataType pin the column to bigint. Without these the
// migrator derives the column type from the struct's first field (a bool)
// and every write of a known fee fails.
func (Fee) GormDataType() string {
	return "bigint"
}

func (Fee) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return "bigint"
}

// Value / Scan store the fee as a nullable lovelace column.
func (f Fee) Value() (driver.Value, error) {
	if !f.Known {
		return nil, nil
	}
	return f.Lovelace, nil
}

func (f *Fee) Scan(value interface{}) error {
	if value == nil {
		*f = Fee{}
		return nil
	}
	switch v := value.(type) {
	case int64:
		*f = KnownFee(v)
	case float64:
		*f = KnownFee(int64(v))
	default:
		return fmt.Errorf("cannot scan %T into Fee", value)
	}
	return nil
}

// TransactionRecord is one per-wallet ledger entry mirroring a note
// operation on chain. Partitioned by WalletAddress: a record created under
// one wallet is never visible while another wallet is the active session.
type TransactionRecord struct {
	ID            string `json:"id" gorm:"primaryKey"` // immutable, assigned at creation
	WalletAddress string `json:"wallet_address" gorm:"index;not null"`

	Type      string `json:"type"`                                 // sent | received | recorded
	Amount    Fee    `json:"amount" gorm:"column:amount_lovelace"` // network fee in ADA, null until resolved
	Operation string `json:"operation,omitempty"`                  // note_create | note_update | note_delete

	// NoteID may be attached after creation — notes can exist locally before
	// the backend assigns an id.
	NoteID *string `json:"note_id,omitempty" gorm:"index"`

	TxHash  *string `json:"tx_hash,omitempty" gorm:"index"` // dedup key against the backend cache
	Network string  `json:"network"`                        // preview | preprod | mainnet

	Status    string `json:"status" gorm:"default:'pending'"` // pending | confirmed | failed | recorded
	FeeSource string `json:"fee_source" gorm:"default:'estimated'"`

	// BackendSynced flips to true once the backend cache has durably
	// accepted this record; it gates duplicate pushes.
	BackendSynced bool `json:"backend_synced" gorm:"default:false"`

	// NoteStatusSynced flips to true once the linked note has been told
	// about this record's confirmation. Stays false on propagation failure
	// so the sweep retries it.
	NoteStatusSynced bool `json:"note_status_synced" gorm:"default:false"`

	// Descriptive metadata, not used for identity
	Note      string `json:"note,omitempty"`
	NoteTitle string `json:"note_title,omitempty"`
	Category  string `json:"category,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// SyncEligible reports whether a record satisfies every precondition for a
// backend push: hash present, confirmed, chain-sourced fee, not yet synced.
func (r *TransactionRecord) SyncEligible() bool {
	return r.TxHash != nil && *r.TxHash != "" &&
		r.Status == StatusConfirmed &&
		r.FeeSource == FeeSourceBlockchain &&
		r.Amount.Known &&
		!r.BackendSynced
}

// ExplorerURL builds a Cardanoscan link for the record's own network, so
// cross-network history stays valid after a network switch.
func (r *TransactionRecord) ExplorerURL() string {
	if r.TxHash == nil {
		return ""
	}
	switch r.Network {
	case NetworkMainnet:
		return "https://cardanoscan.io/transaction/" + *r.TxHash
	case NetworkPreprod:
		return "https://preprod.cardanoscan.io/transaction/" + *r.TxHash
	default:
		return "https://preview.cardanoscan.io/transaction/" + *r.TxHash
	}
}
