package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchen-backoffice/internal/config"
	"kitchen-backoffice/internal/handler"
	"kitchen-backoffice/internal/middleware"
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/scheduler"
	"kitchen-backoffice/internal/search"
	"kitchen-backoffice/internal/service"
	"kitchen-backoffice/internal/storage"
	"kitchen-backoffice/internal/ws"
	"kitchen-backoffice/pkg/cache"
	"kitchen-backoffice/pkg/database"
	"kitchen-backoffice/pkg/jwt"
	"kitchen-backoffice/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()
	jwt.SetSecret(cfg.Auth.JWTSecret)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.DSN(), database.LogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	// 3. Seed admin profile
	seedAdmin(db, log)

	// 4. Storage and caches
	ctx := context.Background()
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("storage setup failed", zap.Error(err))
	}
	var profileCache *cache.Cache
	if cfg.Redis.Addr != "" {
		profileCache, err = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Profiles still load from the database without the cache.
			log.Warn("redis unavailable, profile cache disabled", zap.Error(err))
			profileCache = nil
		} else {
			defer profileCache.Close()
		}
	}
	searchCache := search.NewCache()

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub(logger.Named("ws"))
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	profileRepo := repository.NewProfileRepo(db)
	masterRepo := repository.NewUnitConversionRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	snapshotRepo := repository.NewSnapshotRepo(db)
	recipeRepo := repository.NewRecipeRepo(db)
	trashCSVRepo := repository.NewTrashPriceCSVRepo(db)

	profileService := service.NewProfileService(profileRepo, profileCache, logger.Named("profile"))
	authService := service.NewAuthService(profileRepo, profileService, wsHub, logger.Named("auth"))
	priceService := service.NewPurchasePriceService(store, trashCSVRepo, searchCache, wsHub, logger.Named("price_csv"))
	masterService := service.NewUnitConversionService(masterRepo, priceService, searchCache, wsHub, cfg.Import.Concurrency, logger.Named("master"))
	searchService := service.NewIngredientSearchService(masterRepo, priceService, searchCache, cfg.Import.SearchLimit, logger.Named("search"))
	inventoryService := service.NewInventoryService(inventoryRepo, masterRepo, snapshotRepo, priceService, wsHub, logger.Named("inventory"))
	snapshotService := service.NewSnapshotService(snapshotRepo, profileRepo, inventoryService, wsHub, logger.Named("snapshot"))
	recipeService := service.NewRecipeService(recipeRepo, masterRepo)
	dashService := service.NewDashboardService(inventoryService, snapshotRepo, priceService)

	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	priceHandler := handler.NewPriceCSVHandler(priceService)
	masterHandler := handler.NewMasterHandler(masterService, searchService)
	invHandler := handler.NewInventoryHandler(inventoryService)
	snapHandler := handler.NewSnapshotHandler(snapshotService)
	recipeHandler := handler.NewRecipeHandler(recipeService)
	dashHandler := handler.NewDashboardHandler(dashService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Kitchen Backoffice v1.0",
		BodyLimit: 12 << 20,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(profileRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(profileRepo))

	protected.Get("/auth/me", profileHandler.Me)
	protected.Put("/profile", profileHandler.Update)
	protected.Get("/admin/profiles", middleware.RequireAdmin(), profileHandler.List)

	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	protected.Get("/prices", priceHandler.Prices)
	protected.Get("/price-csv", priceHandler.ListFiles)
	protected.Post("/price-csv", priceHandler.Upload)
	protected.Get("/price-csv/trash", priceHandler.ListTrash)
	protected.Post("/price-csv/trash/:id/restore", priceHandler.Restore)
	protected.Delete("/price-csv/trash/:id", priceHandler.Purge)
	protected.Get("/price-csv/:name", priceHandler.Download)
	protected.Delete("/price-csv/:name", priceHandler.Delete)

	protected.Get("/ingredients/search", masterHandler.Search)
	protected.Get("/masters", masterHandler.List)
	protected.Post("/masters", masterHandler.Save)
	protected.Post("/masters/bulk", masterHandler.BulkSave)
	protected.Get("/masters/import-preview", masterHandler.PreviewImport)
	protected.Get("/masters/:id", masterHandler.Get)
	protected.Put("/masters/:id", masterHandler.Update)
	protected.Delete("/masters/:id", masterHandler.Delete)

	protected.Get("/inventory", invHandler.List)
	protected.Post("/inventory", invHandler.Save)
	protected.Post("/inventory/bulk", invHandler.BulkUpsert)
	protected.Post("/inventory/complete", invHandler.Complete)
	protected.Get("/inventory/export", invHandler.ExportCSV)
	protected.Put("/inventory/:id", invHandler.Update)
	protected.Delete("/inventory/:id", invHandler.Delete)

	protected.Get("/snapshots", snapHandler.List)
	protected.Get("/snapshots/trash", snapHandler.ListTrash)
	protected.Post("/snapshots/trash/:id/restore", snapHandler.Restore)
	protected.Delete("/snapshots/trash/:id", snapHandler.Purge)
	protected.Get("/snapshots/:id", snapHandler.Get)
	protected.Get("/snapshots/:id/export", snapHandler.ExportCSV)
	protected.Delete("/snapshots/:id", snapHandler.Delete)

	protected.Get("/recipes", recipeHandler.List)
	protected.Post("/recipes", recipeHandler.Create)
	protected.Get("/recipes/:id", recipeHandler.Get)
	protected.Put("/recipes/:id", recipeHandler.Update)
	protected.Delete("/recipes/:id", recipeHandler.Delete)
	protected.Get("/recipes/:id/cost", recipeHandler.Cost)
	protected.Get("/recipes/:id/bakers", recipeHandler.Bakers)

	// WebSocket Route
	app.Use("/ws", handler.WSUpgrade(profileRepo))
	app.Get("/ws", handler.WSHandler(wsHub))

	// 9. Scheduler
	sched, err := scheduler.NewScheduler(cfg.Scheduler, snapshotService, logger.Named("scheduler"))
	if err != nil {
		log.Fatal("scheduler setup failed", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}

	// 10. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Panic("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	sched.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()
	log.Info("server exited")
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Mode == config.StorageLocal {
		return storage.NewLocalStore(cfg.LocalDir)
	}
	return storage.NewGCSStore(ctx, cfg.Bucket, cfg.Credentials)
}

// seedAdmin creates the default admin profile when no profile uses its email.
func seedAdmin(db *gorm.DB, log *zap.Logger) {
	profileRepo := repository.NewProfileRepo(db)

	email := envOr("ADMIN_EMAIL", "admin@example.com")
	_, err := profileRepo.FindByEmail(email)
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("admin lookup failed", zap.Error(err))
		return
	}

	admin := &model.Profile{
		Email:       email,
		DisplayName: "Administrator",
		Role:        model.RoleAdmin,
		IsActive:    true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(envOr("ADMIN_PASSWORD", "admin123")); err != nil {
		log.Warn("failed to hash admin password", zap.Error(err))
		return
	}
	if err := profileRepo.Create(admin); err != nil {
		log.Warn("failed to create admin profile", zap.Error(err))
		return
	}
	log.Info("admin profile created", zap.String("email", email))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
