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

	"go-auth-service/internal/config"
	"go-auth-service/internal/database"
	"go-auth-service/internal/event"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/router"
	"go-auth-service/internal/service"
	"go-auth-service/internal/websocket"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	recorder := service.NewAuditRecorder(auditRepo, cfg.AuditBufferSize)
	hasher := service.NewSecretHasher(cfg.BcryptCost)

	codec, err := service.NewTokenCodec(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	verifier, err := service.NewCredentialVerifier(userRepo, hasher)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize credential verifier: %w", err)
	}

	authService := service.NewAuthService(userRepo, sessionRepo, verifier, codec, hasher, recorder, bus, cfg.MaxSessionsPerUser)

	if err := authService.SeedDefaultAdmin(context.Background(), cfg.DefaultAdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed default admin: %w", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService)
	auditHandler := handler.NewAuditHandler(auditRepo)
	healthHandler := handler.NewHealthHandler(db)

	appRouter := router.New(cfg, authMiddleware, authHandler, userHandler, auditHandler, healthHandler, hub)

	gcCtx, gcCancel := context.WithCancel(context.Background())
	go runSessionGC(gcCtx, authService, cfg.SessionGCInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				gcCancel()
			},
			func() {
				recorder.Close()
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Stop background workers after in-flight requests finish, so late
	// audit records still reach the recorder before it drains.
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}

// runSessionGC periodically deactivates sessions whose expiry has passed.
func runSessionGC(ctx context.Context, svc *service.AuthService, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleaned, err := svc.CleanupExpiredSessions(ctx)
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if cleaned > 0 {
				slog.Info("expired sessions cleaned", "count", cleaned)
			}
		}
	}
}
