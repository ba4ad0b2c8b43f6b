// services/errors.go
package services

import "fmt"

// Operation-level failures propagate synchronously to the caller so the UI
// can gate its own backend write on the chain operation succeeding.
// Background reconciliation failures (indexer/backend) are logged and
// retried on the next scheduled pass instead.
var (
	ErrNotConnected     = fmt.Errorf("no wallet connected")
	ErrViewOnly         = fmt.Errorf("wallet is connected in view-only mode")
	ErrSigningTimeout   = fmt.Errorf("wallet signing timed out")
	ErrUserRejected     = fmt.Errorf("user rejected the transaction")
	ErrSubmissionFailed = fmt.Errorf("transaction submission failed")

	ErrIndexerUnavailable = fmt.Errorf("indexer unavailable")
	ErrBackendConflict    = fmt.Errorf("backend already has this transaction")
	ErrBackendUnavailable = fmt.Errorf("backend unavailable")

	ErrRecordNotFound = fmt.Errorf("transaction record not found")
)
