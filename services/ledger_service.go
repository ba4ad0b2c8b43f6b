// services/ledger_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"chain-notes-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// LedgerService is the GORM-backed LedgerStore. Records are partitioned by
// wallet address; every query the UI can reach is scoped to one address.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

func (s *LedgerService) Append(rec *models.TransactionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Category != "" {
		rec.Category = slug.Make(rec.Category)
	}
	return s.DB.Create(rec).Error
}

func (s *LedgerService) Get(id string) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	if err := s.DB.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns one wallet's ledger, newest first, optionally narrowed by
// free-text search and category.
func (s *LedgerService) List(address, search, category string) ([]models.TransactionRecord, error) {
	q := s.DB.Where("wallet_address = ?", address)

	if search != "" {
		like := "%" + search + "%"
		q = q.Where("note ILIKE ? OR note_title ILIKE ? OR tx_hash ILIKE ?", like, like, like)
	}
	if category != "" {
		q = q.Where("category = ?", slug.Make(category))
	}

	var records []models.TransactionRecord
	if err := q.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateFields applies a field-level merge to one record. Callers must never
// Save whole records: the fee resolver and the confirmation monitor touch
// the same rows concurrently and would overwrite each other.
func (s *LedgerService) UpdateFields(id string, fields map[string]interface{}) error {
	if newStatus, ok := fields["status"]; ok {
		rec, err := s.Get(id)
		if err != nil {
			return err
		}
		ns, _ := newStatus.(string)
		if !models.CanTransition(rec.Status, ns) {
			return fmt.Errorf("invalid status transition %s -> %s for record %s", rec.Status, ns, id)
		}
	}

	fields["updated_at"] = time.Now()
	res := s.DB.Model(&models.TransactionRecord{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Remove deletes one record of the given wallet. This is the manual
// affordance for records stuck in pending/failed the user wants gone; the
// address check keeps one wallet from removing another's entries.
func (s *LedgerService) Remove(id, address string) error {
	res := s.DB.Where("id = ? AND wallet_address = ?", id, address).
		Delete(&models.TransactionRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// LinkNote attaches the backend-assigned note id to a record created before
// the backend knew about the note.
func (s *LedgerService) LinkNote(id, noteID string) error {
	return s.UpdateFields(id, map[string]interface{}{"note_id": noteID})
}

// PendingUnsynced returns every submitted-but-unconfirmed record across all
// wallets. The confirmation monitor runs against the persisted ledger, not
// the live session, so a disconnect does not strand in-flight records.
func (s *LedgerService) PendingUnsynced() ([]models.TransactionRecord, error) {
	var records []models.TransactionRecord
	err := s.DB.
		Where("status = ? AND tx_hash IS NOT NULL AND backend_synced = ?", models.StatusPending, false).
		Find(&records).Error
	return records, err
}

// FeeUnresolved returns submitted records whose fee is not yet chain-sourced.
func (s *LedgerService) FeeUnresolved() ([]models.TransactionRecord, error) {
	var records []models.TransactionRecord
	err := s.DB.
		Where("fee_source <> ? AND tx_hash IS NOT NULL", models.FeeSourceBlockchain).
		Find(&records).Error
	return records, err
}

// NoteStatusBacklog returns confirmed records whose linked note has not yet
// been told about the confirmation.
func (s *LedgerService) NoteStatusBacklog() ([]models.TransactionRecord, error) {
	var records []models.TransactionRecord
	err := s.DB.
		Where("status = ? AND note_id IS NOT NULL AND note_status_synced = ?",
			models.StatusConfirmed, false).
		Find(&records).Error
	return records, err
}

// SyncBacklog returns records that cleared every push precondition but have
// not been accepted by the backend cache yet.
func (s *LedgerService) SyncBacklog() ([]models.TransactionRecord, error) {
	var records []models.TransactionRecord
	err := s.DB.
		Where("status = ? AND fee_source = ? AND backend_synced = ? AND tx_hash IS NOT NULL",
			models.StatusConfirmed, models.FeeSourceBlockchain, false).
		Find(&records).Error
	return records, err
}
