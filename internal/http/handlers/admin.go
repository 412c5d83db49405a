package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gpneto/Clinica360-sub004/internal/clinic"
	"github.com/gpneto/Clinica360-sub004/internal/reminders"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

type settingsAdmin interface {
	Refresh(ctx context.Context, tenantID string) (clinic.Settings, error)
	Invalidate(ctx context.Context, tenantID string)
}

type sweeper interface {
	Sweep(ctx context.Context) (reminders.Result, error)
}

// AdminHandler exposes the operational endpoints: settings cache maintenance
// and manually triggered reminder sweeps.
type AdminHandler struct {
	settings settingsAdmin
	sweeper  sweeper
	logger   *logging.Logger
}

func NewAdminHandler(settings settingsAdmin, sweeper sweeper, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{settings: settings, sweeper: sweeper, logger: logger.Component("admin")}
}

// RefreshSettings reloads a tenant's settings from the store into the cache.
func (h *AdminHandler) RefreshSettings(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		http.Error(w, "settings resolver not configured", http.StatusServiceUnavailable)
		return
	}
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}
	settings, err := h.settings.Refresh(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("settings refresh failed", "tenant_id", tenantID, "error", err)
		http.Error(w, "refresh failed", http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// InvalidateSettings drops a tenant's settings cache entry; the next read
// falls through to the store.
func (h *AdminHandler) InvalidateSettings(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		http.Error(w, "settings resolver not configured", http.StatusServiceUnavailable)
		return
	}
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}
	h.settings.Invalidate(r.Context(), tenantID)
	w.WriteHeader(http.StatusNoContent)
}

// TriggerSweep runs one reminder sweep immediately.
func (h *AdminHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		http.Error(w, "reminder dispatcher not configured", http.StatusServiceUnavailable)
		return
	}
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.logger.Error("manual reminder sweep failed", "error", err)
		http.Error(w, "sweep failed", http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
