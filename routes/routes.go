package routes

import (
	"log/slog"
	"net/http"

	_ "github.com/Dosada05/hackathon-registration/docs"
	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/handlers"
	"github.com/Dosada05/hackathon-registration/limiter"
	"github.com/Dosada05/hackathon-registration/middleware"
	"github.com/Dosada05/hackathon-registration/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// JWTSecret guards the organizer routes; they are not mounted when empty.
	JWTSecret []byte
	// SubmitLimiter throttles POST /api/registrations; nil disables it.
	SubmitLimiter limiter.Limiter
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	registrationHandler *handlers.RegistrationHandler,
	formHandler *handlers.FormHandler,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	router.Use(chiMiddleware.RequestID)
	if opts.TrustProxyHeaders {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthHandler.Health)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/register", http.StatusFound)
	})
	router.Get("/register", formHandler.Show)
	router.Post("/register", formHandler.Post)

	router.Route("/api/registrations", func(r chi.Router) {
		r.Get("/form", registrationHandler.GetForm)
		r.Post("/validate", registrationHandler.Validate)

		r.Group(func(r chi.Router) {
			if opts.SubmitLimiter != nil {
				r.Use(middleware.RateLimit(opts.SubmitLimiter, forms.NoticeTooManyRequests, opts.Logger))
			}
			r.Post("/", registrationHandler.Submit)
		})
	})

	router.Post("/auth/login", authHandler.Login)

	if len(opts.JWTSecret) == 0 {
		return
	}

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Get("/ws", webSocketHandler.ServeWs)

		r.Route("/registrations", func(r chi.Router) {
			r.Get("/", adminHandler.ListRegistrations)
			r.Post("/export", adminHandler.ExportRegistrations)
			r.Get("/{reference}", adminHandler.GetRegistration)
			r.Delete("/{reference}", adminHandler.WithdrawRegistration)
		})
	})
}
