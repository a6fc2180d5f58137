package main

import (
	"context"
	"time"

	"github.com/Queneri/catalogotefi/internal/catalog"
	"github.com/Queneri/catalogotefi/internal/export"
	"github.com/Queneri/catalogotefi/internal/handler"
	"github.com/Queneri/catalogotefi/internal/identity"
	mid "github.com/Queneri/catalogotefi/internal/middleware"
	"github.com/Queneri/catalogotefi/internal/store"
	"github.com/Queneri/catalogotefi/pkg/config"
	"github.com/Queneri/catalogotefi/pkg/database"
	"github.com/Queneri/catalogotefi/pkg/jwtutil"
	"github.com/Queneri/catalogotefi/pkg/logger"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("catalog-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog-service", appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Record store and identity repository
	var (
		records store.RecordStore
		users   identity.Repository
	)
	switch appConfig.Store.Driver {
	case "memory":
		records = store.NewMemoryStore()
		users = identity.NewMemoryRepository()
		log.Warn("Using in-memory store, data is lost on restart")
	default:
		db, err := database.InitDB(&appConfig.DB)
		if err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		log.Info("Database connection established")

		gs := store.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			log.Fatal("Failed to migrate products", zap.Error(err))
		}
		repo := identity.NewGormRepository(db)
		if err := repo.Migrate(); err != nil {
			log.Fatal("Failed to migrate users", zap.Error(err))
		}
		records, users = gs, repo
	}

	// Notices and identity changes
	bus := EventBus.New()
	if err := catalog.SubscribeNotices(bus, log.Named("catalog")); err != nil {
		log.Fatal("Failed to subscribe catalog notices", zap.Error(err))
	}

	brands := make([]catalog.Brand, 0, len(appConfig.Catalog.Brands))
	for _, b := range appConfig.Catalog.Brands {
		brands = append(brands, catalog.Brand{Slug: b.Slug, Name: b.Name, Deposit: b.Deposit})
	}
	registry := catalog.NewRegistry(records, brands,
		catalog.WithNotifier(catalog.NewBusNotifier(bus)),
		catalog.WithBulkConcurrency(appConfig.Catalog.BulkConcurrency))

	tokens := jwtutil.NewJWTUtil(&appConfig.JWT)
	idService := identity.NewService(users, tokens, bus, appConfig.Auth.AdminEmails...)
	err = idService.OnIdentityChange(func(ch identity.Change) {
		log.Info("Identity changed",
			zap.String("kind", string(ch.Kind)),
			zap.String("email", ch.Identity.Email),
			zap.String("role", ch.Identity.Role))
	})
	if err != nil {
		log.Fatal("Failed to subscribe identity changes", zap.Error(err))
	}

	// Warm every brand so the first request does not pay for the load
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := registry.LoadAll(ctx); err != nil {
		log.Warn("Initial catalog load failed, brands load on first use", zap.Error(err))
	}
	cancel()

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.AccessLogMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Routes
	handler.RegisterRoutes(e,
		handler.NewAuthHandler(idService),
		handler.NewCatalogHandler(registry, appConfig.Export.MaxImageBytes,
			export.NewPDFExporter(export.NewHTTPFetcher(appConfig.Export.ImageTimeout, appConfig.Export.MaxImageBytes)),
			export.CSVExporter{}),
		idService,
	)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
