package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-todo-client/internal/config"
	"go-todo-client/internal/database"
	"go-todo-client/internal/handler"
	"go-todo-client/internal/middleware"
	"go-todo-client/internal/repository"
	"go-todo-client/internal/router"
	"go-todo-client/internal/service"
)

type App struct {
	server       *http.Server
	handler      http.Handler
	cleanupFuncs []func()
}

// New wires the reference API. Without DATABASE_URL it keeps everything in
// memory; otherwise it connects to PostgreSQL and ensures the schema.
func New(ctx context.Context, cfg *config.ServerConfig) (*App, error) {
	var (
		userRepo repository.UserRepository
		todoRepo repository.TodoRepository
		health   func(context.Context) error
		cleanup  []func()
	)

	if cfg.DatabaseURL == "" {
		slog.Info("using in-memory storage")
		userRepo = repository.NewMemoryUserRepository()
		todoRepo = repository.NewMemoryTodoRepository()
	} else {
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, database.Options{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		userRepo = repository.NewPostgresUserRepository(db.Pool)
		todoRepo = repository.NewPostgresTodoRepository(db.Pool)
		health = db.Health
		cleanup = append(cleanup, db.Close)
		slog.Info("database ready")
	}

	h, err := newHandler(ctx, cfg, userRepo, todoRepo, health)
	if err != nil {
		for _, fn := range cleanup {
			fn()
		}
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		ReadTimeout:       cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, handler: h, cleanupFuncs: cleanup}, nil
}

// NewHandler builds the HTTP handler over in-memory repositories.
func NewHandler(ctx context.Context, cfg *config.ServerConfig) (http.Handler, error) {
	return newHandler(ctx, cfg, repository.NewMemoryUserRepository(), repository.NewMemoryTodoRepository(), nil)
}

func newHandler(
	ctx context.Context,
	cfg *config.ServerConfig,
	userRepo repository.UserRepository,
	todoRepo repository.TodoRepository,
	health func(context.Context) error,
) (http.Handler, error) {
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	if cfg.SeedAdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.SeedAdminUsername, cfg.SeedAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		if created {
			slog.Info("seeded admin account", "username", cfg.SeedAdminUsername)
		}
	}

	todoService := service.NewTodoService(todoRepo)

	return router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(authService),
		Todo:   handler.NewTodoHandler(todoService),
		Admin:  handler.NewAdminHandler(todoService),
		Health: health,
	}), nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
