package api

import (
	"context"
	"net/http"
	"time"
)

// Checker pings one dependency.
type Checker func(ctx context.Context) error

type HealthHandler struct {
	postgres Checker
	redis    Checker
	env      string
	version  string
}

// NewHealthHandler takes optional checkers; a nil checker is reported as
// "disabled" and does not affect readiness.
func NewHealthHandler(postgres, redis Checker, env, version string) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
		env:      env,
		version:  version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

func check(ctx context.Context, c Checker) string {
	if c == nil {
		return "disabled"
	}
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := c(cctx); err != nil {
		return "down"
	}
	return "ok"
}

// Readiness reports "error" (503) when Postgres is down and "degraded" when
// only Redis is.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{
		"postgres": check(ctx, h.postgres),
		"redis":    check(ctx, h.redis),
	}

	status := "ok"
	if deps["redis"] == "down" {
		status = "degraded"
	}
	if deps["postgres"] == "down" {
		status = "error"
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
