package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chain-notes-system/handlers"
	"chain-notes-system/middleware"
	"chain-notes-system/models"
	"chain-notes-system/services"
	"chain-notes-system/utils"
	"chain-notes-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.TransactionRecord{},
		&models.ConnectedWallet{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	koiosURL := os.Getenv("KOIOS_PROXY_URL")
	if koiosURL == "" {
		log.Fatal("KOIOS_PROXY_URL environment variable not set")
	}
	backendURL := os.Getenv("NOTES_BACKEND_URL")
	if backendURL == "" {
		log.Fatal("NOTES_BACKEND_URL environment variable not set")
	}
	backendToken := os.Getenv("NOTES_BACKEND_TOKEN")
	if backendToken == "" {
		log.Fatal("NOTES_BACKEND_TOKEN environment variable not set")
	}
	bridgeURL := os.Getenv("WALLET_BRIDGE_URL")
	if bridgeURL == "" {
		log.Fatal("WALLET_BRIDGE_URL environment variable not set")
	}

	koios := services.NewKoiosClient(koiosURL)
	backend := services.NewBackendClient(backendURL, backendToken)
	signer := services.NewSignerBridge(bridgeURL)

	ledgerService := services.NewLedgerService(db)
	sessionService := services.NewSessionService(db, signer, koios)
	syncBridge := services.NewSyncBridge(backend, ledgerService)
	feeResolver := services.NewFeeResolver(koios, ledgerService, syncBridge, services.DefaultFeeRetryPolicy)
	recorder := services.NewOperationRecorder(sessionService, signer, ledgerService, feeResolver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionService.Restore(ctx)

	confirmationWorker := workers.NewConfirmationWorker(ledgerService, koios, syncBridge)
	confirmationWorker.Start(ctx)

	housekeeping := services.NewHousekeeping(ledgerService, feeResolver, syncBridge)
	if err := housekeeping.StartScheduler(ctx); err != nil {
		log.Fatal("failed to start housekeeping scheduler:", err)
	}

	handlers.SetupSessionRoutes(app, sessionService)
	handlers.SetupLedgerRoutes(app, ledgerService, sessionService, recorder, koios)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Confirmation monitor running (every 20s)")
	log.Println("✅ Housekeeping sweep running (every 2m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
