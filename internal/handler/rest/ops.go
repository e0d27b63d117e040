package rest

import (
	"fmt"
	"net/http"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/registry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpsHandler serves liveness, metrics and, on the post service, the
// registry snapshot.
type OpsHandler struct {
	status string
	hub    registry.Hubber
}

func NewPostOpsHandler(cfg *config.Config, hub registry.Hubber) *OpsHandler {
	return &OpsHandler{
		status: fmt.Sprintf("Post service instance %s is running", cfg.Service.InstanceID),
		hub:    hub,
	}
}

func NewUserOpsHandler(cfg *config.Config) *OpsHandler {
	return &OpsHandler{
		status: fmt.Sprintf("User service instance %s is running", cfg.Service.InstanceID),
	}
}

func (h *OpsHandler) Routes(r chi.Router) {
	r.Get("/status", h.getStatus)
	r.Handle("/metrics", promhttp.Handler())
	if h.hub != nil {
		r.Get("/debug/hub", h.hubStats)
	}
}

func (h *OpsHandler) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{Status: h.status})
}

func (h *OpsHandler) hubStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Stats())
}
