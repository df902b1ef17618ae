package app

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

	httpapi "github.com/aussiebroadwan/starterkit/internal/users/http"
	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"github.com/aussiebroadwan/starterkit/internal/users/store/drivers/mongo"
	"github.com/aussiebroadwan/starterkit/internal/users/store/drivers/sqlite"
	"github.com/aussiebroadwan/starterkit/pkg/cryptox"
	"github.com/aussiebroadwan/starterkit/pkg/slogx"
	"github.com/aussiebroadwan/starterkit/pkg/usersdk"
)

// BuildVersion is overridden with -ldflags "-X .../app.BuildVersion=..." in release builds.
var BuildVersion = "v0.1.0"

const connectTimeout = 10 * time.Second

// Application wires the user service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	tokenService *service.TokenService
	userService  *service.UserService
	authService  *service.AuthService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg, opens the store and builds the HTTP server. The store is
// closed again if a later step fails.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: cfg.AppName,
			Version: cfg.Version,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	ctx = slogx.WithContext(ctx, app.logger)

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("user service starting", "port", app.cfg.Port, "driver", app.cfg.DatabaseDriver)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down user service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("user service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations. Failure
// here aborts startup.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverMongo:
		db, err = mongo.NewStore(ctx, app.cfg.MongoURI, app.cfg.MongoDatabase)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	hasher, err := cryptox.NewHasher(pepper, app.cfg.PasswordSchemes...)
	if err != nil {
		return fmt.Errorf("failed to build password hasher: %w", err)
	}

	app.tokenService, err = service.NewTokenService(
		[]byte(app.cfg.JWTSecret),
		app.cfg.JWTIssuer,
		app.cfg.AccessTokenTTL,
		app.cfg.RefreshTokenTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to build token service: %w", err)
	}

	app.userService = &service.UserService{Store: app.db, Hasher: hasher}
	app.authService = &service.AuthService{
		Store:  app.db,
		Hasher: hasher,
		Tokens: app.tokenService,
	}

	if _, err := app.userService.BootstrapAdmin(ctx,
		app.cfg.BootstrapAdminUsername,
		app.cfg.BootstrapAdminName,
		app.cfg.BootstrapAdminPassword,
	); err != nil {
		return err
	}

	app.logger.Info("password hashing configured", "current_scheme", hasher.Current())
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		usersdk.InfoResponse{
			Project:     app.cfg.AppName,
			Version:     app.cfg.Version,
			Debug:       app.cfg.Debug,
			Environment: app.cfg.Env,
		},
		app.db,
		app.logger,
		app.cfg.CORSOrigins,
	)

	router.UserService = app.userService
	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
