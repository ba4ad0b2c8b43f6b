// models/wallet_session.go
package models

const (
	SessionModeFull     = "full"      // signer available, can submit transactions
	SessionModeViewOnly = "view-only" // read-only; balance comes from the indexer
)

// ConnectedWallet persists the "currently connected address" across
// restarts. Single row (ID = 1); disconnect removes the row, which hides
// every wallet's ledger without erasing it.
type ConnectedWallet struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Address  string `json:"address" gorm:"not null"`
	WalletID string `json:"wallet_id"` // installed signer name, empty in view-only mode
	Mode     string `json:"mode"`      // full | view-only
	Network  string `json:"network" gorm:"default:'preview'"`

	Timestamps
}

// SessionView is what the UI sees of the current session.
type SessionView struct {
	Connected bool    `json:"connected"`
	Address   string  `json:"address,omitempty"`
	WalletID  string  `json:"wallet_id,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	Network   string  `json:"network,omitempty"`
	Balance   float64 `json:"balance"` // ADA
}
