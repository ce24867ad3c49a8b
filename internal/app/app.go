package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkhub/internal/config"
	"parkhub/internal/db"
	httpserver "parkhub/internal/http"
	"parkhub/internal/http/handlers"
	"parkhub/internal/http/middleware"
	"parkhub/internal/identity"
	"parkhub/internal/redisstore"
	"parkhub/internal/repository"
	"parkhub/internal/service"
	"parkhub/internal/ws"
)

// App wires parkhub dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	pool        *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	var (
		redisClient *redis.Client
		cache       service.ActiveBookingCache
	)
	if cfg.CacheEnabled() {
		redisClient, err = redisstore.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			pool.Close()
			return nil, err
		}
		cache = redisstore.NewActiveBookingStore(redisClient, cfg.ActiveBookingTTL())
	}

	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	lotRepo := repository.NewLotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	verifier := identity.NewTokenVerifier(cfg.Auth.Secret)
	identitySvc := identity.NewService(verifier, userRepo, adminRepo, logger)

	hub := ws.NewHub(logger)
	notifier := &availabilityNotifier{lots: lotRepo, hub: hub, logger: logger}

	registrySvc := service.NewRegistry(lotRepo, notifier, logger)
	bookingSvc := service.NewBooking(bookingRepo, cache, notifier, logger)
	reportingSvc := service.NewReporting(reportRepo)

	bookingHandler := handlers.NewBookingHandler(bookingSvc, logger)
	adminHandler := handlers.NewAdminHandler(registrySvc, reportingSvc, logger)

	routes := httpserver.Routes{
		Root:   handlers.NewRootHandler(),
		Health: handlers.NewHealthHandler(),

		Whoami:   handlers.NewWhoamiHandler(identitySvc),
		SyncUser: handlers.NewSyncUserHandler(identitySvc),

		ParkingLocations: handlers.NewParkingLocationsHandler(registrySvc),

		Book:          bookingHandler.Book,
		ActiveBooking: bookingHandler.Active,
		MyBookings:    bookingHandler.History,
		Release:       bookingHandler.Release,

		Analytics:    adminHandler.Analytics,
		DailyRevenue: adminHandler.DailyRevenue,
		AddLot:       adminHandler.AddLot,
		UpdateLot:    adminHandler.UpdateLot,
		DeleteLot:    adminHandler.DeleteLot,

		Availability: handlers.NewAvailabilityHandler(hub, logger),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(identitySvc), middleware.AdminOnly(identitySvc))
	handler := middleware.RequestID(middleware.Logging(logger)(router))
	server := httpserver.NewServer(cfg.HTTPAddress(), handler, logger)

	return &App{
		server:      server,
		hub:         hub,
		pool:        pool,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the websocket hub and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
