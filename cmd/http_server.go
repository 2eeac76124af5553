package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/auth"
	authPostgres "github.com/umoc-outing-club/gear-locker/internal/auth/postgres"
	"github.com/umoc-outing-club/gear-locker/internal/cache"
	"github.com/umoc-outing-club/gear-locker/internal/category"
	categoryPostgres "github.com/umoc-outing-club/gear-locker/internal/category/postgres"
	"github.com/umoc-outing-club/gear-locker/internal/core/events"
	"github.com/umoc-outing-club/gear-locker/internal/custody"
	custodyPostgres "github.com/umoc-outing-club/gear-locker/internal/custody/postgres"
	"github.com/umoc-outing-club/gear-locker/internal/gear"
	gearPostgres "github.com/umoc-outing-club/gear-locker/internal/gear/postgres"
	"github.com/umoc-outing-club/gear-locker/internal/metrics"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
	"github.com/umoc-outing-club/gear-locker/internal/transport/middleware"
	"github.com/umoc-outing-club/gear-locker/internal/transport/rest"
	"github.com/umoc-outing-club/gear-locker/internal/transport/swagger"
	"github.com/umoc-outing-club/gear-locker/internal/user"
	userPostgres "github.com/umoc-outing-club/gear-locker/internal/user/postgres"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Gorm        *gorm.DB
	Cache       *cache.Client
	EventBus    *events.EventBus
	RateLimiter *middleware.RateLimiter
	Router      *chi.Mux
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// subscribers may still be invalidating the cache
		if err := deps.EventBus.Wait(ctx); err != nil {
			deps.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
		deps.close()
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.RateLimiter != nil {
		d.RateLimiter.Stop()
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Error("Cache close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := bootstrap()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gormDB,
		EventBus: events.NewEventBus(lg),
		Router:   chi.NewRouter(),
		Logger:   lg,
	}

	if config.Cache.Enabled {
		deps.Cache = cache.New(config.Cache.Addr, config.Cache.Password, config.Cache.DB)
		ctx, cancel := internal.WithTimeout(context.Background(), config.Database.QueryTimeout)
		if err := deps.Cache.Ping(ctx); err != nil {
			// the gear listing falls back to the database
			lg.Warn("redis unreachable at startup", "addr", config.Cache.Addr, "error", err)
		}
		cancel()
	}

	if config.Server.OpenAPIPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		doc, err := swagger.LoadSpec(ctx, config.Server.OpenAPIPath)
		cancel()
		if err != nil {
			deps.close()
			return nil, err
		}
		lg.Debug("openapi document loaded", "operations", len(swagger.Operations(doc)))
	}

	if config.RateLimit.Enabled {
		deps.RateLimiter = middleware.NewRateLimiter(middleware.NewRateLimiterConfig(
			config.RateLimit.RequestsPerMin,
			config.RateLimit.Burst,
			config.RateLimit.CleanupInterval,
		), lg)
	}

	setupRoutes(deps)
	return deps, nil
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	queryTimeout := cfg.Database.QueryTimeout

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// stores
	identityRepo := authPostgres.NewIdentityRepository(deps.Gorm)
	userLookup := authPostgres.NewUserLookup(deps.Gorm)
	userRepo := userPostgres.NewUserRepository(deps.Gorm)
	categoryRepo := categoryPostgres.NewCategoryRepository(deps.Gorm)
	gearRepo := gearPostgres.NewGearRepository(deps.Gorm)
	custodyRepo := custodyPostgres.NewCustodyRepository(deps.Gorm)
	custodyLog := custodyPostgres.NewLogReader(deps.DB)

	// services
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(identityRepo, userLookup, tokens, cfg.Security.BCryptCost, deps.Logger).
		WithQueryTimeout(queryTimeout)
	userService := user.NewService(userRepo, authService, deps.Logger, queryTimeout)
	categoryService := category.NewService(categoryRepo, deps.Logger)

	var gearCache gear.Cache
	if deps.Cache != nil {
		gearCache = deps.Cache
	}
	gearService := gear.NewService(gearRepo, categoryService, gearCache, deps.EventBus, deps.Logger, gear.Options{
		CacheTTL:     cfg.Cache.GearTTL,
		QueryTimeout: queryTimeout,
	})
	custodyService := custody.NewService(custodyRepo, custodyLog, deps.EventBus, collector, deps.Logger, custody.Options{
		RequireLeaderRole: cfg.Custody.RequireLeaderRole,
		QueryTimeout:      queryTimeout,
	}).WithListingCache(gearService)

	subscribeEvents(deps.EventBus, gearService, deps.Logger)

	// handlers
	checker := auth.NewPermissionChecker()
	routes := rest.Dependencies{
		DB:             deps.DB,
		Auth:           auth.NewHandler(authService),
		RBAC:           auth.NewRBACAuthorization(checker, deps.Logger),
		Ownership:      auth.NewOwnershipPolicy(transport.NewBaseHandler(deps.Logger), checker),
		User:           user.NewHandler(userService),
		Gear:           gear.NewHandler(gearService),
		Category:       category.NewHandler(transport.NewBaseHandler(deps.Logger), categoryService),
		Custody:        custody.NewHandler(custodyService),
		RateLimiter:    deps.RateLimiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
		Logger:         deps.Logger,
	}
	if deps.Cache != nil {
		routes.Cache = deps.Cache
	}
	if cfg.Observability.Metrics.Enabled {
		routes.HTTPMetrics = collector
		routes.MetricsHandler = metrics.Handler(registry)
		routes.MetricsPath = cfg.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, routes)
}

func subscribeEvents(bus *events.EventBus, gearService *gear.Service, lg *slog.Logger) {
	bus.SubscribeAll(gearService.HandleGearEvent,
		events.EventTypeGearCheckedOut,
		events.EventTypeGearCheckedIn,
		events.EventTypeGearChanged,
	)

	audit := func(_ context.Context, event events.Event) error {
		lg.Info("custody event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	}
	bus.SubscribeAll(audit, events.EventTypeGearCheckedOut, events.EventTypeGearCheckedIn)
}

// initDB opens the shared pgx pool used by sqlx readers and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
