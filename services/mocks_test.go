package services

import (
	"context"

	"chain-notes-system/models"

	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) Append(rec *models.TransactionRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockLedgerStore) Get(id string) (*models.TransactionRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionRecord), args.Error(1)
}

func (m *MockLedgerStore) List(address, search, category string) ([]models.TransactionRecord, error) {
	args := m.Called(address, search, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionRecord), args.Error(1)
}

func (m *MockLedgerStore) UpdateFields(id string, fields map[string]interface{}) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

func (m *MockLedgerStore) Remove(id, address string) error {
	args := m.Called(id, address)
	return args.Error(0)
}

func (m *MockLedgerStore) LinkNote(id, noteID string) error {
	args := m.Called(id, noteID)
	return args.Error(0)
}

func (m *MockLedgerStore) PendingUnsynced() ([]models.TransactionRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionRecord), args.Error(1)
}

func (m *MockLedgerStore) FeeUnresolved() ([]models.TransactionRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionRecord), args.Error(1)
}

func (m *MockLedgerStore) NoteStatusBacklog() ([]models.TransactionRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionRecord), args.Error(1)
}

func (m *MockLedgerStore) SyncBacklog() ([]models.TransactionRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionRecord), args.Error(1)
}

type MockIndexerClient struct {
	mock.Mock
}

func (m *MockIndexerClient) AddressInfo(ctx context.Context, network, address string) (int64, error) {
	args := m.Called(ctx, network, address)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIndexerClient) TxInfo(ctx context.Context, network string, hashes []string) ([]TxStatusInfo, error) {
	args := m.Called(ctx, network, hashes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TxStatusInfo), args.Error(1)
}

func (m *MockIndexerClient) AddressTxs(ctx context.Context, network, address string) ([]AddressTx, error) {
	args := m.Called(ctx, network, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AddressTx), args.Error(1)
}

type MockChainBackend struct {
	mock.Mock
}

func (m *MockChainBackend) CreateTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockChainBackend) GetTransactionByHash(ctx context.Context, txHash string) (*RemoteTransaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RemoteTransaction), args.Error(1)
}

func (m *MockChainBackend) UpdateTransaction(ctx context.Context, remoteID string, rec *models.TransactionRecord) error {
	args := m.Called(ctx, remoteID, rec)
	return args.Error(0)
}

func (m *MockChainBackend) UpdateNoteStatus(ctx context.Context, noteID, status, txHash, network, walletAddress string) error {
	args := m.Called(ctx, noteID, status, txHash, network, walletAddress)
	return args.Error(0)
}

type MockWalletSigner struct {
	mock.Mock
}

func (m *MockWalletSigner) Enable(ctx context.Context, walletName string) error {
	args := m.Called(ctx, walletName)
	return args.Error(0)
}

func (m *MockWalletSigner) GetChangeAddress(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockWalletSigner) GetBalance(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletSigner) GetUtxos(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockWalletSigner) BuildMetadataTx(ctx context.Context, payload *MetadataPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockWalletSigner) SignTx(ctx context.Context, unsignedTx string, partial bool) (string, error) {
	args := m.Called(ctx, unsignedTx, partial)
	return args.String(0), args.Error(1)
}

func (m *MockWalletSigner) SubmitTx(ctx context.Context, signedTx string) (string, error) {
	args := m.Called(ctx, signedTx)
	return args.String(0), args.Error(1)
}
