// handlers/session_routes.go
package handlers

import (
	"chain-notes-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSessionRoutes(app *fiber.App, sessionService *services.SessionService) {
	app.Get("/session", func(c *fiber.Ctx) error {
		return c.JSON(sessionService.Current())
	})

	app.Post("/session/connect", func(c *fiber.Ctx) error {
		var body struct {
			WalletID string `json:"wallet_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.WalletID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "wallet_id is required",
			})
		}

		view, err := sessionService.Connect(c.Context(), body.WalletID)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "failed to connect wallet",
				"cause": err.Error(),
			})
		}
		return c.JSON(view)
	})

	app.Post("/session/connect-view-only", func(c *fiber.Ctx) error {
		var body struct {
			Address string `json:"address"`
		}
		if err := c.BodyParser(&body); err != nil || body.Address == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "address is required",
			})
		}

		view, err := sessionService.ConnectViewOnly(c.Context(), body.Address)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to start view-only session",
				"cause": err.Error(),
			})
		}
		return c.JSON(view)
	})

	app.Post("/session/disconnect", func(c *fiber.Ctx) error {
		if err := sessionService.Disconnect(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to disconnect",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"disconnected": true})
	})

	app.Post("/session/network", func(c *fiber.Ctx) error {
		var body struct {
			Network string `json:"network"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		if err := sessionService.SetNetwork(body.Network); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(sessionService.Current())
	})

	app.Post("/session/balance/refresh", func(c *fiber.Ctx) error {
		if err := sessionService.RefreshBalance(c.Context()); err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "balance refresh failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(sessionService.Current())
	})
}
