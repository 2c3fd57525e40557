package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/medcita/appointment-scheduling/internal/appointment"
	"github.com/medcita/appointment-scheduling/internal/auth"
	"github.com/medcita/appointment-scheduling/internal/directory"
)

type RouterConfig struct {
	Scheduling *appointment.Service
	Directory  *directory.Service
	Auth       *auth.Manager
	PgPool     *pgxpool.Pool
	Redis      *redis.Client
	Env        string
	Version    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public auth endpoints
	r.Post("/auth/register", registerPatientHandler(cfg.Directory))
	r.Post("/auth/login", loginHandler(cfg.Directory, cfg.Auth))

	// Everything else requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)

		r.Post("/appointments", createAppointmentHandler(cfg.Scheduling))
		r.Get("/appointments", listAppointmentsHandler(cfg.Scheduling))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduling))
		r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Scheduling))
		r.Patch("/appointments/{id}/status", changeStatusHandler(cfg.Scheduling))
		r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Scheduling))

		r.Get("/patients", listPatientsHandler(cfg.Directory))
		r.Get("/patients/{id}", getPatientHandler(cfg.Directory))
		r.Put("/patients/{id}", updatePatientHandler(cfg.Directory))
		r.Patch("/patients/{id}/role", changeRoleHandler(cfg.Directory))
		r.Delete("/patients/{id}", deletePatientHandler(cfg.Directory))
		r.Get("/patients/{id}/appointments", listByPatientHandler(cfg.Scheduling))

		r.Post("/physicians", createPhysicianHandler(cfg.Directory))
		r.Get("/physicians", listPhysiciansHandler(cfg.Directory))
		r.Get("/physicians/{id}", getPhysicianHandler(cfg.Directory))
		r.Put("/physicians/{id}", updatePhysicianHandler(cfg.Directory))
		r.Delete("/physicians/{id}", deletePhysicianHandler(cfg.Directory))
		r.Get("/physicians/{id}/appointments", listByPhysicianHandler(cfg.Scheduling))
	})

	return r
}
