package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/settings"
)

type SettingsHandler struct {
	store   settings.Store
	timeout time.Duration
}

func NewSettingsHandler(store settings.Store, timeout time.Duration) *SettingsHandler {
	return &SettingsHandler{
		store:   store,
		timeout: timeout,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cfg, err := h.store.Load(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// Put replaces the whole configuration. Fields left out of the body take
// their default values.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cfg := domain.DefaultShopConfig()
	if err := decodeJSON(r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.store.Save(ctx, cfg); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}
