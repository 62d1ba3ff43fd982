// Package api exposes the onboarding session manager over HTTP.
package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"onboarding-service/internal/common/auth"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/onboarding"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether one backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

// Config defines dependencies required by the router.
type Config struct {
	Manager        *onboarding.SessionManager
	Verifier       *auth.Verifier
	AllowedOrigins []string
	Readiness      map[string]ReadinessCheck
	Logger         logger.Logger
}

type Handler struct {
	manager   *onboarding.SessionManager
	readiness map[string]ReadinessCheck
	logger    logger.Logger
}

// NewRouter builds the full HTTP surface.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger.WithFields(map[string]interface{}{"component": "http"})
	h := &Handler{
		manager:   cfg.Manager,
		readiness: cfg.Readiness,
		logger:    log,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(instrument(log))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(cfg.AllowedOrigins))

	router.Get("/health", h.health)
	router.Get("/ready", h.ready)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/v1", func(r chi.Router) {
		r.Use(authenticate(cfg.Verifier, log))
		h.Register(r)
	})

	return router
}

// Register mounts the authenticated onboarding routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/onboarding", h.getOnboarding)
	r.Put("/onboarding/sections/{section}", h.saveSection)
	r.Post("/onboarding/steps/complete", h.completeStep)
	r.Post("/onboarding/steps/advance", h.advance)
	r.Post("/onboarding/skip", h.skip)
	r.Post("/onboarding/edit/{step}", h.editFrom)
	r.Delete("/onboarding/customers/{index}", h.removeCustomer)
	r.Post("/onboarding/invoices", h.addInvoice)
	r.Delete("/onboarding/invoices/{index}", h.removeInvoice)
	r.Get("/onboarding/banks", h.listBanks)
	r.Post("/onboarding/bank/connect", h.connectBank)
	r.Post("/onboarding/agreement", h.signAgreement)
	r.Post("/onboarding/submit", h.submit)
	r.Get("/application", h.getApplication)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.readiness))
	for name := range h.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.readiness[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(h.logger, w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}
