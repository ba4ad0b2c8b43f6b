package services

import (
	"context"
	"errors"
	"testing"

	"chain-notes-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeSessionStore struct {
	saved *models.ConnectedWallet
}

func (f *fakeSessionStore) Load() (*models.ConnectedWallet, error) {
	if f.saved == nil {
		return nil, nil
	}
	sess := *f.saved
	return &sess, nil
}

func (f *fakeSessionStore) Save(sess *models.ConnectedWallet) error {
	saved := *sess
	f.saved = &saved
	return nil
}

func (f *fakeSessionStore) Clear() error {
	f.saved = nil
	return nil
}

func TestRestoreDegradesToViewOnlyAndPersistsIt(t *testing.T) {
	store := &fakeSessionStore{saved: &models.ConnectedWallet{
		ID:       1,
		Address:  "addr1qxy",
		WalletID: "eternl",
		Mode:     models.SessionModeFull,
		Network:  models.NetworkPreview,
	}}

	signer := new(MockWalletSigner)
	signer.On("Enable", mock.Anything, "eternl").Return(errors.New("wallet not installed")).Once()

	indexer := new(MockIndexerClient)
	indexer.On("AddressInfo", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()

	session := &SessionService{Store: store, Signer: signer, Indexer: indexer}
	session.Restore(context.Background())

	view := session.Current()
	assert.True(t, view.Connected)
	assert.Equal(t, models.SessionModeViewOnly, view.Mode)

	// the stored row must not keep claiming a full session
	assert.Equal(t, models.SessionModeViewOnly, store.saved.Mode)
	assert.Equal(t, "", store.saved.WalletID)
	signer.AssertExpectations(t)
}

func TestRestoreReattachesMatchingSigner(t *testing.T) {
	store := &fakeSessionStore{saved: &models.ConnectedWallet{
		ID:       1,
		Address:  "addr1qxy",
		WalletID: "eternl",
		Mode:     models.SessionModeFull,
		Network:  models.NetworkPreview,
	}}

	signer := new(MockWalletSigner)
	signer.On("Enable", mock.Anything, "eternl").Return(nil).Once()
	signer.On("GetChangeAddress", mock.Anything).Return("addr1qxy", nil).Once()
	signer.On("GetBalance", mock.Anything).Return(int64(5_000_000), nil).Maybe()

	session := &SessionService{Store: store, Signer: signer, Indexer: new(MockIndexerClient)}
	session.Restore(context.Background())

	view := session.Current()
	assert.True(t, view.Connected)
	assert.Equal(t, models.SessionModeFull, view.Mode)
	assert.Equal(t, "eternl", store.saved.WalletID, "a restored full session keeps its signer")
}

func TestRefreshBalanceFullModeFallsBackToIndexer(t *testing.T) {
	signer := new(MockWalletSigner)
	signer.On("GetBalance", mock.Anything).Return(int64(0), errors.New("wallet locked")).Once()

	indexer := new(MockIndexerClient)
	indexer.On("AddressInfo", mock.Anything, models.NetworkPreview, "addr1qxy").
		Return(int64(12_500_000), nil).Once()

	session := fullSession(signer, indexer)
	session.Indexer = indexer

	err := session.RefreshBalance(context.Background())

	assert.NoError(t, err)
	assert.InDelta(t, 12.5, session.Current().Balance, 1e-9)
	signer.AssertExpectations(t)
	indexer.AssertExpectations(t)
}

func TestRefreshBalanceViewOnlyNeverTouchesSigner(t *testing.T) {
	signer := new(MockWalletSigner)
	indexer := new(MockIndexerClient)
	indexer.On("AddressInfo", mock.Anything, models.NetworkPreview, "addr1qxy").
		Return(int64(3_000_000), nil).Once()

	session := fullSession(signer, indexer)
	session.current.Mode = models.SessionModeViewOnly

	err := session.RefreshBalance(context.Background())

	assert.NoError(t, err)
	assert.InDelta(t, 3.0, session.Current().Balance, 1e-9)
	signer.AssertNotCalled(t, "GetBalance", mock.Anything)
}

func TestSessionViewWhenDisconnected(t *testing.T) {
	session := &SessionService{}

	view := session.Current()
	assert.False(t, view.Connected)

	_, err := session.ActiveAddress()
	assert.True(t, errors.Is(err, ErrNotConnected))

	assert.Equal(t, models.NetworkPreview, session.ActiveNetwork(), "network defaults to preview")

	err = session.RefreshBalance(context.Background())
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestRequireFullRejectsViewOnly(t *testing.T) {
	session := fullSession(new(MockWalletSigner), new(MockIndexerClient))

	sess, err := session.RequireFull()
	assert.NoError(t, err)
	assert.Equal(t, "addr1qxy", sess.Address)

	session.current.Mode = models.SessionModeViewOnly
	_, err = session.RequireFull()
	assert.True(t, errors.Is(err, ErrViewOnly))
}
