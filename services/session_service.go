// services/session_service.go
package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"chain-notes-system/models"

	"gorm.io/gorm"
)

// SessionStore persists the single connected-wallet row across restarts.
type SessionStore interface {
	Load() (*models.ConnectedWallet, error)
	Save(sess *models.ConnectedWallet) error
	Clear() error
}

type gormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) SessionStore {
	return &gormSessionStore{db: db}
}

func (s *gormSessionStore) Load() (*models.ConnectedWallet, error) {
	var saved models.ConnectedWallet
	if err := s.db.Where("id = ?", 1).First(&saved).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &saved, nil
}

func (s *gormSessionStore) Save(sess *models.ConnectedWallet) error {
	sess.ID = 1
	if err := s.db.Unscoped().Where("id = ?", 1).Delete(&models.ConnectedWallet{}).Error; err != nil {
		return err
	}
	return s.db.Create(sess).Error
}

func (s *gormSessionStore) Clear() error {
	return s.db.Unscoped().Where("id = ?", 1).Delete(&models.ConnectedWallet{}).Error
}

// SessionService owns the current wallet identity: address, network, balance
// and connection mode. Every other component reads the active address and
// network from here. The connected address survives restarts via a single
// persisted row; balance is fetched fresh.
type SessionService struct {
	Store   SessionStore
	Signer  WalletSigner
	Indexer IndexerClient

	mu      sync.Mutex
	current *models.ConnectedWallet
	balance int64 // lovelace
}

func NewSessionService(db *gorm.DB, signer WalletSigner, indexer IndexerClient) *SessionService {
	return &SessionService{Store: NewGormSessionStore(db), Signer: signer, Indexer: indexer}
}

// Restore re-attaches the previously connected wallet on boot. Full access
// is attempted first; when the saved address no longer matches the installed
// signer (wallet removed, account switched) the session degrades to
// view-only instead of failing.
func (s *SessionService) Restore(ctx context.Context) {
	saved, err := s.Store.Load()
	if err != nil {
		log.Printf("⚠️ [SESSION] failed to load saved session: %v", err)
		return
	}
	if saved == nil {
		return
	}

	if saved.WalletID != "" {
		if err := s.Signer.Enable(ctx, saved.WalletID); err == nil {
			addr, err := s.Signer.GetChangeAddress(ctx)
			if err == nil && addr == saved.Address {
				saved.Mode = models.SessionModeFull
				s.install(saved)
				log.Printf("✅ [SESSION] restored full session for %s", saved.Address)
				go s.RefreshBalance(context.Background())
				return
			}
		}
		log.Printf("⚠️ [SESSION] saved address %s has no matching signer, falling back to view-only", saved.Address)
	}

	// persist the degraded row too, so the store never keeps claiming a
	// full session the signer can no longer back
	saved.Mode = models.SessionModeViewOnly
	saved.WalletID = ""
	if err := s.Store.Save(saved); err != nil {
		log.Printf("⚠️ [SESSION] failed to persist degraded session: %v", err)
	}
	s.install(saved)
	go s.RefreshBalance(context.Background())
}

// Connect establishes a full session through the named installed signer.
func (s *SessionService) Connect(ctx context.Context, walletID string) (*models.SessionView, error) {
	if err := s.Signer.Enable(ctx, walletID); err != nil {
		return nil, err
	}
	addr, err := s.Signer.GetChangeAddress(ctx)
	if err != nil {
		return nil, err
	}

	sess := &models.ConnectedWallet{
		ID:       1,
		Address:  addr,
		WalletID: walletID,
		Mode:     models.SessionModeFull,
		Network:  s.networkOrDefault(),
	}
	if err := s.Store.Save(sess); err != nil {
		return nil, err
	}
	s.install(sess)
	log.Printf("✅ [SESSION] connected %s via %s", addr, walletID)

	go s.RefreshBalance(context.Background())
	view := s.Current()
	return &view, nil
}

// ConnectViewOnly establishes a read-only session for a bare address. No
// signer, so recording operations are refused, but the ledger and balance
// remain visible.
func (s *SessionService) ConnectViewOnly(ctx context.Context, address string) (*models.SessionView, error) {
	sess := &models.ConnectedWallet{
		ID:      1,
		Address: address,
		Mode:    models.SessionModeViewOnly,
		Network: s.networkOrDefault(),
	}
	if err := s.Store.Save(sess); err != nil {
		return nil, err
	}
	s.install(sess)
	log.Printf("👁️ [SESSION] view-only session for %s", address)

	go s.RefreshBalance(context.Background())
	view := s.Current()
	return &view, nil
}

// Disconnect tears down the session. The ledger of this wallet stays in
// storage (other wallets keep theirs too); it just stops being visible
// because nothing is connected. Fee resolutions already in flight keep
// running against the persisted ledger.
func (s *SessionService) Disconnect() error {
	if err := s.Store.Clear(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = nil
	s.balance = 0
	s.mu.Unlock()
	log.Println("⏹️ [SESSION] disconnected")
	return nil
}

// SetNetwork switches the chain environment for new operations. Existing
// records carry their own network, so history across networks stays valid
// and no fee re-fetch happens here.
func (s *SessionService) SetNetwork(network string) error {
	if !models.ValidNetwork(network) {
		return errors.New("unknown network: " + network)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotConnected
	}
	s.current.Network = network
	return s.Store.Save(s.current)
}

// RefreshBalance re-fetches the balance. View-only sessions always ask the
// indexer; full sessions ask the signer first and fall back to the indexer.
func (s *SessionService) RefreshBalance(ctx context.Context) error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return ErrNotConnected
	}

	var lovelace int64
	var err error
	if sess.Mode == models.SessionModeFull {
		lovelace, err = s.Signer.GetBalance(ctx)
		if err != nil {
			log.Printf("⚠️ [SESSION] signer balance failed, falling back to indexer: %v", err)
			lovelace, err = s.Indexer.AddressInfo(ctx, sess.Network, sess.Address)
		}
	} else {
		lovelace, err = s.Indexer.AddressInfo(ctx, sess.Network, sess.Address)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.balance = lovelace
	s.mu.Unlock()
	return nil
}

// Current returns the UI view of the session.
func (s *SessionService) Current() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.SessionView{Connected: false}
	}
	return models.SessionView{
		Connected: true,
		Address:   s.current.Address,
		WalletID:  s.current.WalletID,
		Mode:      s.current.Mode,
		Network:   s.current.Network,
		Balance:   float64(s.balance) / models.LovelacePerAda,
	}
}

// ActiveAddress returns the connected address, or ErrNotConnected.
func (s *SessionService) ActiveAddress() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", ErrNotConnected
	}
	return s.current.Address, nil
}

// ActiveNetwork returns the session network, defaulting to preview when
// nothing is connected.
func (s *SessionService) ActiveNetwork() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.NetworkPreview
	}
	return s.current.Network
}

// RequireFull returns the session if it can sign, ErrNotConnected or
// ErrViewOnly otherwise.
func (s *SessionService) RequireFull() (*models.ConnectedWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNotConnected
	}
	if s.current.Mode != models.SessionModeFull {
		return nil, ErrViewOnly
	}
	sess := *s.current
	return &sess, nil
}

func (s *SessionService) networkOrDefault() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current.Network
	}
	return models.NetworkPreview
}

func (s *SessionService) install(sess *models.ConnectedWallet) {
	s.mu.Lock()
	s.current = sess
	s.balance = 0
	s.mu.Unlock()
}
