package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-registration-api/internal/application/access"
	"github.com/go-registration-api/internal/application/dispatch"
	fieldapp "github.com/go-registration-api/internal/application/field"
	"github.com/go-registration-api/internal/application/upload"
	userapp "github.com/go-registration-api/internal/application/user"
	"github.com/go-registration-api/internal/application/verification"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/transport/http/handler"
	appmiddleware "github.com/go-registration-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second with a burst of 10 on the sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	gateway := dispatch.NewGateway(deps.Mailer, deps.SMSProvider, cfg)
	fieldSvc := fieldapp.NewService(deps.FieldRepo)
	verificationSvc := verification.NewService(verification.ServiceDeps{
		Users:     deps.UserRepo,
		Codes:     deps.CodeRepo,
		Cooldowns: deps.Cooldowns,
		Gateway:   gateway,
		Config:    cfg,
	})
	userSvc := userapp.NewService(userapp.ServiceDeps{
		Users:        deps.UserRepo,
		Fields:       fieldSvc,
		Verification: verificationSvc,
		Tokens:       deps.JWTProvider,
		Config:       cfg,
	})
	uploadSvc := upload.NewService(deps.S3Store, deps.UploadRepo, fieldSvc, deps.UserRepo)
	gate := access.NewGate(deps.UserRepo, verificationSvc, cfg.RequireEmailVerif)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc)
	sessionH := handler.NewSessionHandler(userSvc, gate, verificationSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc)
	accessH := handler.NewAccessHandler(gate)
	fieldH := handler.NewFieldHandler(fieldSvc)
	smsH := handler.NewSMSHandler(gateway)
	fileH := handler.NewFileHandler(uploadSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Get("/verify", verificationH.OneClick)
		r.Get("/fields", fieldH.List)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/verification/{channel}/send", verificationH.Send)
			r.Post("/verification/{channel}/resend", verificationH.Resend)
			r.Post("/verification/{channel}/validate", verificationH.Validate)
			r.Post("/verification/phone/skip", verificationH.Skip)
			r.Get("/verification/status", verificationH.Status)
			r.Get("/access", accessH.Check)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			r.Post("/files", fileH.Upload)
			r.Get("/files/{id}", fileH.Download)
			r.Delete("/files/{id}", fileH.Delete)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/fields/{name}", fieldH.Get)
				r.Post("/fields", fieldH.Create)
				r.Put("/fields/order", fieldH.Reorder)
				r.Put("/fields/{name}", fieldH.Update)
				r.Delete("/fields/{name}", fieldH.Delete)

				r.Get("/verification/stats", verificationH.Stats)
				r.Post("/users/{id}/verification/{channel}/force", verificationH.Force)
				r.Post("/users/{id}/verification/{channel}/reset", verificationH.Reset)
				r.Post("/sms/test", smsH.Test)

				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
