package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Conversations ConversationService
	Documents     DocumentService    // optional
	Appointments  AppointmentService // optional
	Postgres      Checker
	Redis         Checker
	Logger        *slog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", createConversationHandler(cfg.Conversations, logger))
		r.Post("/{id}/messages", sendMessageHandler(cfg.Conversations, logger))
		r.Post("/{id}/reset", resetConversationHandler(cfg.Conversations, logger))
		r.Get("/{id}/form", formStatusHandler(cfg.Conversations, logger))
		r.Get("/{id}/history", historyHandler(cfg.Conversations, logger))
		if cfg.Appointments != nil {
			r.Get("/{id}/appointments", conversationAppointmentsHandler(cfg.Appointments, logger))
		}
	})

	if cfg.Documents != nil {
		r.Post("/documents", uploadDocumentHandler(cfg.Documents, logger))
		r.Get("/documents", listDocumentsHandler(cfg.Documents, logger))
	}

	if cfg.Appointments != nil {
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments, logger))
	}

	return otelhttp.NewHandler(r, "api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
