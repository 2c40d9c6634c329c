package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/websocket"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	auditHandler *handler.AuditHandler,
	healthHandler *handler.HealthHandler,
	hub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(api chi.Router) {
		// The websocket stream is long-lived, so it stays outside the
		// request timeout group.
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).
			Get("/events", func(w http.ResponseWriter, req *http.Request) {
				websocket.ServeWS(hub, w, req)
			})

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", authHandler.Login)
				auth.Post("/refresh", authHandler.Refresh)
				auth.Post("/logout", authHandler.Logout)
				auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/register", authHandler.Register)
				auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
				auth.With(authMiddleware.RequireAuth).Put("/password", authHandler.ChangePassword)
				auth.With(authMiddleware.RequireAuth).Get("/sessions", authHandler.Sessions)
				auth.With(authMiddleware.RequireAuth).Delete("/sessions/{session_id}", authHandler.RevokeSession)
			})

			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/users", userHandler.List)
			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/audit", auditHandler.Query)
		})
	})

	return r
}
