// handlers/ledger_routes.go
package handlers

import (
	"errors"
	"fmt"
	"time"

	"chain-notes-system/models"
	"chain-notes-system/services"
	"chain-notes-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

// ledgerEntryView is one row of the ledger as the UI renders it. The amount
// is null until the real fee is known; amount_display carries the distinct
// "fee pending" state so the UI never shows 0 for an unresolved fee.
type ledgerEntryView struct {
	models.TransactionRecord
	AmountDisplay string `json:"amount_display"`
	ExplorerURL   string `json:"explorer_url,omitempty"`
}

func toView(rec models.TransactionRecord) ledgerEntryView {
	return ledgerEntryView{
		TransactionRecord: rec,
		AmountDisplay:     rec.Amount.Display(),
		ExplorerURL:       rec.ExplorerURL(),
	}
}

func SetupLedgerRoutes(app *fiber.App, ledger services.LedgerStore, session services.SessionInfo, recorder *services.OperationRecorder, indexer services.IndexerClient) {
	app.Get("/ledger", func(c *fiber.Ctx) error {
		address, err := session.ActiveAddress()
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no wallet connected"})
		}

		records, err := ledger.List(address, c.Query("search"), c.Query("category"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load ledger",
				"cause": err.Error(),
			})
		}

		views := make([]ledgerEntryView, 0, len(records))
		for _, rec := range records {
			views = append(views, toView(rec))
		}
		return c.JSON(fiber.Map{"records": views})
	})

	// Manual remove for records stuck in pending/failed the user wants gone
	app.Delete("/ledger/:id", func(c *fiber.Ctx) error {
		address, err := session.ActiveAddress()
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no wallet connected"})
		}

		if err := ledger.Remove(c.Params("id"), address); err != nil {
			if errors.Is(err, services.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "record not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to remove record",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"removed": true})
	})

	// Link the backend-assigned note id to a record created before the
	// backend knew the note
	app.Patch("/ledger/:id/note", func(c *fiber.Ctx) error {
		var body struct {
			NoteID string `json:"note_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.NoteID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "note_id is required"})
		}

		if err := ledger.LinkNote(c.Params("id"), body.NoteID); err != nil {
			if errors.Is(err, services.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "record not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to link note",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"linked": true})
	})

	// On-chain history of the connected address, straight from the indexer
	app.Get("/ledger/history", func(c *fiber.Ctx) error {
		address, err := session.ActiveAddress()
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no wallet connected"})
		}

		txs, err := indexer.AddressTxs(c.Context(), session.ActiveNetwork(), address)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "indexer unavailable",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"transactions": txs})
	})

	// Snapshot the current wallet's ledger to object storage
	app.Post("/ledger/export", func(c *fiber.Ctx) error {
		address, err := session.ActiveAddress()
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no wallet connected"})
		}

		records, err := ledger.List(address, "", "")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load ledger",
				"cause": err.Error(),
			})
		}

		key := fmt.Sprintf("ledger-snapshots/%s/%s.json",
			slug.Make(shortAddress(address)),
			time.Now().UTC().Format("2006-01-02T15-04-05Z"))

		url, err := utils.UploadLedgerSnapshot(c.Context(), records, key)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "snapshot upload failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"key": key, "url": url, "records": len(records)})
	})

	setupOperationRoutes(app, recorder)
}

func setupOperationRoutes(app *fiber.App, recorder *services.OperationRecorder) {
	app.Post("/operations/note-create", func(c *fiber.Ctx) error {
		var draft services.NoteDraft
		if err := c.BodyParser(&draft); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		rec, err := recorder.RecordCreate(c.Context(), draft)
		if err != nil {
			return operationError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toView(*rec))
	})

	app.Post("/operations/note-update", func(c *fiber.Ctx) error {
		var body struct {
			NoteID string `json:"note_id"`
			services.NoteDraft
		}
		if err := c.BodyParser(&body); err != nil || body.NoteID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "note_id is required"})
		}

		rec, err := recorder.RecordUpdate(c.Context(), body.NoteID, body.NoteDraft)
		if err != nil {
			return operationError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toView(*rec))
	})

	app.Post("/operations/note-delete", func(c *fiber.Ctx) error {
		var body struct {
			NoteID string `json:"note_id"`
			Title  string `json:"title"`
		}
		if err := c.BodyParser(&body); err != nil || body.NoteID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "note_id is required"})
		}

		rec, err := recorder.RecordDelete(c.Context(), body.NoteID, body.Title)
		if err != nil {
			return operationError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toView(*rec))
	})

	app.Post("/operations/manual", func(c *fiber.Ctx) error {
		var body struct {
			Note     string `json:"note"`
			Title    string `json:"title"`
			Category string `json:"category"`
			Lovelace int64  `json:"lovelace"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		rec, err := recorder.RecordManual(body.Note, body.Title, body.Category, body.Lovelace)
		if err != nil {
			return operationError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toView(*rec))
	})
}

// operationError maps the recorder's typed failures onto HTTP statuses. The
// caller gates its own note persistence on the 2xx, so these must stay
// distinguishable.
func operationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotConnected), errors.Is(err, services.ErrViewOnly):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "not_connected"})
	case errors.Is(err, services.ErrUserRejected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "user_rejected"})
	case errors.Is(err, services.ErrSigningTimeout):
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{"error": err.Error(), "code": "signing_timeout"})
	case errors.Is(err, services.ErrSubmissionFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error(), "code": "submission_failed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func shortAddress(address string) string {
	if len(address) <= 16 {
		return address
	}
	return address[:16]
}
