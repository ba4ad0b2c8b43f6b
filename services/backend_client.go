// services/backend_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"chain-notes-system/models"
)

// BackendClient talks to the notes backend: the blockchain-transaction cache
// endpoints plus note status propagation. The cache enforces txHash
// uniqueness remotely and answers 409 on duplicates.
type BackendClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewBackendClient(baseURL, token string) *BackendClient {
	return &BackendClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// remoteTxPayload maps a local record onto the backend cache schema.
type remoteTxPayload struct {
	TxHash        string  `json:"txHash"`
	WalletAddress string  `json:"walletAddress"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Operation     string  `json:"operation,omitempty"`
	NoteID        *string `json:"noteId,omitempty"`
	NoteTitle     string  `json:"noteTitle,omitempty"`
	Category      string  `json:"category,omitempty"`
	Network       string  `json:"network"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
}

func toRemotePayload(rec *models.TransactionRecord) remoteTxPayload {
	p := remoteTxPayload{
		WalletAddress: rec.WalletAddress,
		Amount:        rec.Amount.Ada(),
		Type:          rec.Type,
		Operation:     rec.Operation,
		NoteID:        rec.NoteID,
		NoteTitle:     rec.NoteTitle,
		Category:      rec.Category,
		Network:       rec.Network,
		Status:        rec.Status,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.TxHash != nil {
		p.TxHash = *rec.TxHash
	}
	return p
}

// CreateTransaction POSTs a record to the cache. A duplicate txHash comes
// back as ErrBackendConflict, which callers resolve via lookup + update.
func (c *BackendClient) CreateTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	status, body, err := c.do(ctx, "POST", "/blockchain-transactions", toRemotePayload(rec))
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusConflict:
		return ErrBackendConflict
	case status >= 200 && status < 300:
		return nil
	default:
		log.Printf("Backend POST /blockchain-transactions returned %d: %s", status, string(body))
		return fmt.Errorf("%w: create returned %d", ErrBackendUnavailable, status)
	}
}

func (c *BackendClient) GetTransactionByHash(ctx context.Context, txHash string) (*RemoteTransaction, error) {
	status, body, err := c.do(ctx, "GET", "/blockchain-transactions/hash/"+url.PathEscape(txHash), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: lookup by hash returned %d", ErrBackendUnavailable, status)
	}

	var remote RemoteTransaction
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, fmt.Errorf("failed to decode remote transaction: %w", err)
	}
	return &remote, nil
}

func (c *BackendClient) UpdateTransaction(ctx context.Context, remoteID string, rec *models.TransactionRecord) error {
	status, body, err := c.do(ctx, "PUT", "/blockchain-transactions/"+url.PathEscape(remoteID), toRemotePayload(rec))
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		log.Printf("Backend PUT /blockchain-transactions/%s returned %d: %s", remoteID, status, string(body))
		return fmt.Errorf("%w: update returned %d", ErrBackendUnavailable, status)
	}
	return nil
}

// UpdateNoteStatus propagates a confirmation to the linked note.
func (c *BackendClient) UpdateNoteStatus(ctx context.Context, noteID, status, txHash, network, walletAddress string) error {
	q := url.Values{}
	q.Set("status", status)
	q.Set("txHash", txHash)
	q.Set("network", network)
	q.Set("walletAddress", walletAddress)

	code, body, err := c.do(ctx, "PATCH", "/notes/"+url.PathEscape(noteID)+"/status?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if code < 200 || code >= 300 {
		log.Printf("Backend PATCH /notes/%s/status returned %d: %s", noteID, code, string(body))
		return fmt.Errorf("%w: note status update returned %d", ErrBackendUnavailable, code)
	}
	return nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, _ := json.Marshal(payload)
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}
