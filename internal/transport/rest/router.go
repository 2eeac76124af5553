package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/umoc-outing-club/gear-locker/internal/auth"
	"github.com/umoc-outing-club/gear-locker/internal/category"
	"github.com/umoc-outing-club/gear-locker/internal/custody"
	"github.com/umoc-outing-club/gear-locker/internal/gear"
	"github.com/umoc-outing-club/gear-locker/internal/transport/middleware"
	"github.com/umoc-outing-club/gear-locker/internal/transport/swagger"
	"github.com/umoc-outing-club/gear-locker/internal/user"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
)

// Dependencies are the handlers and guards the router wires together.
// Nil handlers leave their routes unregistered.
type Dependencies struct {
	DB             *sqlx.DB
	Cache          Pinger
	Auth           *auth.Handler
	RBAC           *auth.RBACAuthorization
	Ownership      *auth.OwnershipPolicy
	User           *user.Handler
	Gear           *gear.Handler
	Category       *category.Handler
	Custody        *custody.Handler
	RateLimiter    *middleware.RateLimiter
	HTTPMetrics    middleware.HTTPRecorder
	MetricsHandler http.Handler
	MetricsPath    string
	AllowedOrigins string
	OpenAPIPath    string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = logger.LoggerWrapper()
	}
	healthHandler := NewHealthHandler(deps.DB, deps.Cache)

	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	router.Use(middleware.NewCORSMiddleware(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger, metricsPath, "/api/ping", "/api/health"))
	if deps.HTTPMetrics != nil {
		router.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	if deps.MetricsHandler != nil {
		router.Handle(metricsPath, deps.MetricsHandler)
	}

	if deps.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, deps.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	limit := func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// public routes, limited per client IP
		r.Group(func(pub chi.Router) {
			limit(pub)

			if deps.Auth != nil {
				pub.Post("/auth/signIn", deps.Auth.SignIn)
				pub.Post("/auth/refresh", deps.Auth.RefreshToken)
			}
			if deps.User != nil {
				pub.Post("/createUser", deps.User.CreateUser)
			}
			if deps.Category != nil {
				pub.Get("/categories", deps.Category.GetCategories)
			}
		})

		if deps.Auth == nil {
			return
		}

		// authenticated routes, limited per user
		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)
			limit(pr)

			pr.Post("/auth/signOut", deps.Auth.SignOut)

			if deps.Gear != nil {
				pr.Get("/getAllGear", deps.Gear.GetAllGear)
				pr.Get("/getGearById", deps.Gear.GetGearByID)
			}

			if deps.User != nil {
				pr.Get("/getUser", deps.User.GetUser)
				pr.Get("/getUserById", deps.User.GetUserByIdentifier)
				pr.Get("/getGearByUser/{identifier}", deps.User.GetGearByUser)
				if deps.Ownership != nil {
					pr.With(deps.Ownership.RequireSelfOrManager("userId")).Put("/users/{userId}", deps.User.UpdateUser)
				}
			}

			if deps.RBAC == nil {
				return
			}

			pr.Group(func(lr chi.Router) {
				lr.Use(deps.RBAC.RequireLeader())

				if deps.Custody != nil {
					lr.Post("/checkGear/{flag}", deps.Custody.CheckGear)
					lr.Get("/checkOuts", deps.Custody.ListRecords)
				}
				if deps.User != nil {
					lr.Get("/getAllusers", deps.User.GetAllUsers)
				}
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(deps.RBAC.RequireLockerManager())

				if deps.Gear != nil {
					mr.Post("/gear", deps.Gear.CreateGear)
					mr.Put("/gear/{gearTag}", deps.Gear.UpdateGear)
				}
				if deps.User != nil {
					mr.Delete("/users/{userId}", deps.User.DeleteUser)
				}
			})
		})
	})
}
