package handler

import (
	"net/http"

	"github.com/florawatch/florawatch/internal/api/response"
	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/provider/resilience"
)

// TransportHealthReporter is implemented by providers whose HTTP
// transport keeps a health snapshot.
type TransportHealthReporter interface {
	TransportHealth() (resilience.Health, bool)
}

// Ops serves the health and readiness probes.
type Ops struct {
	provider flora.Provider
}

// NewOps creates the ops handler.
func NewOps(provider flora.Provider) *Ops {
	return &Ops{provider: provider}
}

// Health reports process liveness.
func (h *Ops) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the flowering data provider is reachable,
// including the provider's transport snapshot when it keeps one.
func (h *Ops) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.Health(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "flowering data provider is unavailable")
		return
	}

	body := map[string]any{
		"status":   "ready",
		"provider": h.provider.Name(),
	}
	if reporter, ok := h.provider.(TransportHealthReporter); ok {
		if transport, ok := reporter.TransportHealth(); ok {
			body["transport"] = transport
		}
	}
	response.JSON(w, http.StatusOK, body)
}
