package handlers

import (
	"net/http"

	"github.com/ivlev/reelforge/internal/httpkit"
	"github.com/ivlev/reelforge/internal/system"
)

// recentRenders is how many render log entries the deep health check lists.
const recentRenders = 5

// Health reports liveness; ?deep=true adds host resources, the encoder and the latest
// renders.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"service": "reelforged",
		"version": h.version,
	}

	if r.URL.Query().Get("deep") == "true" {
		health["system"] = system.TakeSnapshot()
		health["encoder"] = h.encoder
		if h.renderLog != nil {
			recent, err := h.renderLog.Last(recentRenders)
			if err != nil {
				h.log.Warn("render log unreadable", "path", h.renderLog.Path(), "error", err)
			} else {
				health["recent_renders"] = recent
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}
