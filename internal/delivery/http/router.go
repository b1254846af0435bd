package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"corporateevents/internal/delivery/http/controllers"
	"corporateevents/internal/delivery/http/middleware"
	"corporateevents/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	User     *controllers.UserController
	Event    *controllers.EventController
	Attendee *controllers.AttendeeController
	Audit    *controllers.AuditController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(next))
	}

	// Auth
	mux.HandleFunc("POST /auth/signup", c.User.SignUp)
	mux.HandleFunc("POST /auth/login", c.User.Login)
	mux.HandleFunc("POST /auth/code", c.User.RequestLoginCode)
	mux.HandleFunc("POST /auth/code/verify", c.User.VerifyLoginCode)

	// Users
	mux.HandleFunc("GET /users/me", auth(c.User.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(c.User.UpdateMe))

	// Events
	mux.HandleFunc("GET /events", c.Event.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", c.Event.GetEvent)

	// Attendee
	mux.HandleFunc("POST /attendee/registrations", auth(c.Attendee.Register))
	mux.HandleFunc("GET /attendee/registrations", auth(c.Attendee.ListMyRegistrations))

	// Admin
	mux.HandleFunc("POST /admin/events", admin(c.Event.CreateEvent))
	mux.HandleFunc("GET /admin/audit-logs", admin(c.Audit.ListAuditLogs))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with panic recovery, request logging and CORS.
func NewHandler(mux http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, middleware.Recoverer(logger, mux)))
}
