// services/signer_bridge.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SignerBridge implements WalletSigner over HTTP against the wallet bridge,
// which fronts the actual browser wallet. Transaction construction and
// signing happen on the wallet side; this client just carries the calls.
type SignerBridge struct {
	BaseURL string
	Client  *http.Client
}

func NewSignerBridge(baseURL string) *SignerBridge {
	return &SignerBridge{
		BaseURL: baseURL,
		Client: &http.Client{
			// Long timeout: SignTx blocks on the user approving in the
			// wallet popup. The recorder enforces its own signing deadline.
			Timeout: 2 * time.Minute,
		},
	}
}

type bridgeError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (b *SignerBridge) Enable(ctx context.Context, walletName string) error {
	var out struct{}
	return b.call(ctx, "POST", "/wallet/enable", map[string]string{"wallet": walletName}, &out)
}

func (b *SignerBridge) GetChangeAddress(ctx context.Context) (string, error) {
	var out struct {
		Address string `json:"address"`
	}
	if err := b.call(ctx, "GET", "/wallet/change-address", nil, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

func (b *SignerBridge) GetBalance(ctx context.Context) (int64, error) {
	var out struct {
		Lovelace int64 `json:"lovelace,string"`
	}
	if err := b.call(ctx, "GET", "/wallet/balance", nil, &out); err != nil {
		return 0, err
	}
	return out.Lovelace, nil
}

func (b *SignerBridge) GetUtxos(ctx context.Context) ([]string, error) {
	var out struct {
		Utxos []string `json:"utxos"`
	}
	if err := b.call(ctx, "GET", "/wallet/utxos", nil, &out); err != nil {
		return nil, err
	}
	return out.Utxos, nil
}

func (b *SignerBridge) BuildMetadataTx(ctx context.Context, payload *MetadataPayload) (string, error) {
	var out struct {
		UnsignedTx string `json:"unsigned_tx"`
	}
	if err := b.call(ctx, "POST", "/wallet/build-metadata-tx", payload, &out); err != nil {
		return "", err
	}
	return out.UnsignedTx, nil
}

func (b *SignerBridge) SignTx(ctx context.Context, unsignedTx string, partial bool) (string, error) {
	var out struct {
		SignedTx string `json:"signed_tx"`
	}
	body := map[string]interface{}{"unsigned_tx": unsignedTx, "partial": partial}
	if err := b.call(ctx, "POST", "/wallet/sign-tx", body, &out); err != nil {
		return "", err
	}
	return out.SignedTx, nil
}

func (b *SignerBridge) SubmitTx(ctx context.Context, signedTx string) (string, error) {
	var out struct {
		TxHash string `json:"tx_hash"`
	}
	body := map[string]interface{}{"signed_tx": signedTx}
	if err := b.call(ctx, "POST", "/wallet/submit-tx", body, &out); err != nil {
		return "", err
	}
	return out.TxHash, nil
}

func (b *SignerBridge) call(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		jsonData, _ := json.Marshal(payload)
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("wallet bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var bridgeErr bridgeError
		_ = json.Unmarshal(respBody, &bridgeErr)
		// The bridge reports a user declining the wallet popup as its own
		// code; that is a normal outcome, not a bridge failure.
		if bridgeErr.Code == "user_rejected" {
			return ErrUserRejected
		}
		return fmt.Errorf("wallet bridge %s returned %d: %s", path, resp.StatusCode, bridgeErr.Error)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode wallet bridge response: %w", err)
	}
	return nil
}
