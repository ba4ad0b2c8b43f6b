// services/koios_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// KoiosClient talks to the Koios proxy. The proxy routes to the right chain
// from the "network" field in the request body, not from the URL.
type KoiosClient struct {
	BaseURL string
	Client  *http.Client
}

func NewKoiosClient(baseURL string) *KoiosClient {
	return &KoiosClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type addressInfoResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // lovelace, stringified
}

// AddressInfo returns the lovelace balance of an address.
func (c *KoiosClient) AddressInfo(ctx context.Context, network, address string) (int64, error) {
	body := map[string]interface{}{
		"_addresses": []string{address},
		"network":    network,
	}

	var results []addressInfoResult
	if err := c.post(ctx, "/koios/address-info", body, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		// address never seen on chain — zero balance, not an error
		return 0, nil
	}

	var lovelace int64
	if _, err := fmt.Sscan(results[0].Balance, &lovelace); err != nil {
		return 0, fmt.Errorf("unparseable balance %q: %w", results[0].Balance, err)
	}
	return lovelace, nil
}

// TxInfo looks up a batch of transaction hashes in a single call. Hashes the
// indexer has not seen yet are simply absent from the result.
func (c *KoiosClient) TxInfo(ctx context.Context, network string, hashes []string) ([]TxStatusInfo, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	body := map[string]interface{}{
		"_tx_hashes": hashes,
		"network":    network,
	}

	var results []TxStatusInfo
	if err := c.post(ctx, "/koios/tx-info", body, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// AddressTxs returns the on-chain transaction history of an address.
func (c *KoiosClient) AddressTxs(ctx context.Context, network, address string) ([]AddressTx, error) {
	body := map[string]interface{}{
		"_addresses": []string{address},
		"network":    network,
	}

	var results []AddressTx
	if err := c.post(ctx, "/koios/address-txs", body, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *KoiosClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexerUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("Koios %s returned %d: %s", path, resp.StatusCode, string(respBody))
		return fmt.Errorf("%w: %s returned %d", ErrIndexerUnavailable, path, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode Koios response: %w", err)
	}
	return nil
}
