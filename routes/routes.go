package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pizza-app/auth-service/app"
	"github.com/pizza-app/auth-service/handlers"
	"github.com/pizza-app/auth-service/middleware"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var redisPinger handlers.RedisPinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	health := handlers.NewHealthHandler(deps.DB.DB, redisPinger, logger)
	jwks := handlers.NewJWKSHandler(deps.Keys, logger)
	authHandler := handlers.NewAuthHandler(deps.AuthService, handlers.NewSessionCookies(cfg.Cookies, cfg.Tokens), logger)
	userHandler := handlers.NewUserHandler(deps.UserService, logger)
	tenantHandler := handlers.NewTenantHandler(deps.TenantService, logger)

	guard := deps.AuthMiddleware
	limit := deps.RateLimiter.Limit

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Public key set consumed by other services
	r.Get("/.well-known/jwks.json", jwks.HandleJWKS)

	r.Route(cfg.BaseURL, func(r chi.Router) {
		r.Get("/", handlers.HandleWelcome)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit).Post("/register", authHandler.HandleRegister)
			r.With(limit).Post("/login", authHandler.HandleLogin)
			r.With(guard.RequireAuth).Get("/self", authHandler.HandleSelf)
			r.With(limit, guard.RequireRefreshToken).Post("/refresh", authHandler.HandleRefresh)
			r.With(guard.RequireAuth, guard.ParseRefreshToken).Post("/logout", authHandler.HandleLogout)
		})

		// User management (admin and manager)
		r.Route("/users", func(r chi.Router) {
			r.Use(guard.RequireAuth)
			r.Use(guard.RequireRole(models.RoleAdmin, models.RoleManager))
			r.Post("/", userHandler.HandleCreate)
			r.Get("/", userHandler.HandleList)
			r.Get("/{id}", userHandler.HandleGet)
			r.Patch("/{id}", userHandler.HandleUpdate)
			r.Delete("/{id}", userHandler.HandleDelete)
		})

		// Tenant listing is public, everything else is admin only
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", tenantHandler.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuth)
				r.Use(guard.RequireRole(models.RoleAdmin))
				r.Post("/", tenantHandler.HandleCreate)
				r.Get("/{id}", tenantHandler.HandleGet)
				r.Patch("/{id}", tenantHandler.HandleUpdate)
				r.Delete("/{id}", tenantHandler.HandleDelete)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, r, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
