package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"chain-notes-system/models"
	"chain-notes-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// --- In-memory fakes ---

type fakeSession struct {
	address string
}

func (f *fakeSession) ActiveAddress() (string, error) {
	if f.address == "" {
		return "", services.ErrNotConnected
	}
	return f.address, nil
}

func (f *fakeSession) ActiveNetwork() string { return models.NetworkPreview }

type fakeLedger struct {
	records []models.TransactionRecord
}

func (f *fakeLedger) Append(rec *models.TransactionRecord) error {
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeLedger) Get(id string) (*models.TransactionRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, services.ErrRecordNotFound
}

func (f *fakeLedger) List(address, search, category string) ([]models.TransactionRecord, error) {
	var out []models.TransactionRecord
	for _, rec := range f.records {
		if rec.WalletAddress != address {
			continue
		}
		if search != "" && !strings.Contains(rec.NoteTitle, search) && !strings.Contains(rec.Note, search) {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeLedger) UpdateFields(id string, fields map[string]interface{}) error { return nil }

func (f *fakeLedger) Remove(id, address string) error {
	for i, rec := range f.records {
		if rec.ID == id && rec.WalletAddress == address {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return services.ErrRecordNotFound
}

func (f *fakeLedger) LinkNote(id, noteID string) error { return nil }

func (f *fakeLedger) PendingUnsynced() ([]models.TransactionRecord, error)   { return nil, nil }
func (f *fakeLedger) FeeUnresolved() ([]models.TransactionRecord, error)     { return nil, nil }
func (f *fakeLedger) SyncBacklog() ([]models.TransactionRecord, error)       { return nil, nil }
func (f *fakeLedger) NoteStatusBacklog() ([]models.TransactionRecord, error) { return nil, nil }

func record(id, address string, amount models.Fee) models.TransactionRecord {
	hash := "hash-" + id
	return models.TransactionRecord{
		ID:            id,
		WalletAddress: address,
		Type:          models.TxTypeSent,
		Amount:        amount,
		TxHash:        &hash,
		Network:       models.NetworkPreview,
		Status:        models.StatusPending,
		FeeSource:     models.FeeSourceEstimated,
		NoteTitle:     "note " + id,
	}
}

func newTestApp(ledger services.LedgerStore, session services.SessionInfo) *fiber.App {
	app := fiber.New()
	SetupLedgerRoutes(app, ledger, session, nil, nil)
	return app
}

func getLedger(t *testing.T, app *fiber.App, query string) []map[string]interface{} {
	req := httptest.NewRequest("GET", "/ledger"+query, nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var decoded struct {
		Records []map[string]interface{} `json:"records"`
	}
	assert.NoError(t, json.Unmarshal(body, &decoded))
	return decoded.Records
}

// --- Tests ---

func TestLedgerIsPartitionedByWallet(t *testing.T) {
	ledger := &fakeLedger{records: []models.TransactionRecord{
		record("a1", "addrA", models.Fee{}),
		record("a2", "addrA", models.KnownFee(170000)),
		record("b1", "addrB", models.Fee{}),
	}}
	session := &fakeSession{address: "addrA"}
	app := newTestApp(ledger, session)

	recs := getLedger(t, app, "")
	assert.Len(t, recs, 2)

	// switch to wallet B: A's records vanish immediately
	session.address = "addrB"
	recs = getLedger(t, app, "")
	assert.Len(t, recs, 1)
	assert.Equal(t, "b1", recs[0]["id"])

	// and reappear unchanged after switching back
	session.address = "addrA"
	recs = getLedger(t, app, "")
	assert.Len(t, recs, 2)
	assert.ElementsMatch(t,
		[]interface{}{"a1", "a2"},
		[]interface{}{recs[0]["id"], recs[1]["id"]})
}

func TestUnresolvedFeeRendersAsPendingNeverZero(t *testing.T) {
	ledger := &fakeLedger{records: []models.TransactionRecord{
		record("a1", "addrA", models.Fee{}),
	}}
	app := newTestApp(ledger, &fakeSession{address: "addrA"})

	recs := getLedger(t, app, "")
	assert.Len(t, recs, 1)
	assert.Nil(t, recs[0]["amount"], "unresolved fee is null, not 0")
	assert.Equal(t, "fee pending", recs[0]["amount_display"])
}

func TestLedgerRequiresConnectedWallet(t *testing.T) {
	app := newTestApp(&fakeLedger{}, &fakeSession{})

	req := httptest.NewRequest("GET", "/ledger", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestManualRemoveIsScopedToOwnWallet(t *testing.T) {
	ledger := &fakeLedger{records: []models.TransactionRecord{
		record("a1", "addrA", models.Fee{}),
		record("b1", "addrB", models.Fee{}),
	}}
	session := &fakeSession{address: "addrA"}
	app := newTestApp(ledger, session)

	// removing another wallet's record fails
	req := httptest.NewRequest("DELETE", "/ledger/b1", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// removing your own stuck record works
	req = httptest.NewRequest("DELETE", "/ledger/a1", nil)
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, ledger.records, 1)
}
