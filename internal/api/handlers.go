// Package api exposes the engine over HTTP: the tick trigger, contact
// schedule inspection, and health.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/pkg/httputil"
	"github.com/ignite/outreach-engine/internal/store"
)

// TickRunner is the engine surface the API needs.
type TickRunner interface {
	RunTick(ctx context.Context, opts domain.TickOptions) (domain.TickSummary, error)
	ContactSchedule(ctx context.Context, contactID string) ([]domain.ScheduledStep, error)
}

// Handlers holds the API dependencies.
type Handlers struct {
	engine  TickRunner
	started time.Time
}

// NewHandlers wires the handler set.
func NewHandlers(engine TickRunner) *Handlers {
	return &Handlers{engine: engine, started: time.Now().UTC()}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// RunAutomation triggers one evaluation tick synchronously and returns the
// summary. The body is optional; an empty body runs a full production tick.
func (h *Handlers) RunAutomation(w http.ResponseWriter, r *http.Request) {
	var opts domain.TickOptions
	if r.ContentLength > 0 {
		if !httputil.Decode(w, r, &opts) {
			return
		}
	}

	summary, err := h.engine.RunTick(r.Context(), opts)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, summary)
}

// GetContactSchedule returns the contact's step timeline: ledger facts for
// attempted steps, projected times for the rest.
func (h *Handlers) GetContactSchedule(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "contactID")
	if contactID == "" {
		httputil.BadRequest(w, "contact id is required")
		return
	}

	steps, err := h.engine.ContactSchedule(r.Context(), contactID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.NotFound(w, "contact not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"contact_id": contactID,
		"steps":      steps,
	})
}
