package handlers

import (
	"net/http"
	"time"
)

// Home handles GET / - plain liveness text.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is running."))
}

// Health handles GET /api/health - JSON healthcheck endpoint for Docker HEALTHCHECK.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"timestamp":      time.Now().Unix(),
	}
	if h.configDigest != "" {
		response["config_digest"] = h.configDigest
	}

	writeJSON(w, http.StatusOK, response)
}
