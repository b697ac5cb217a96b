package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Strum355/log"

	"github.com/sv4u/audiodl/download"
)

// Fetcher produces a tagged audio file for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*download.Download, error)
}

// Handlers holds all HTTP handlers for the service.
type Handlers struct {
	fetcher      Fetcher
	startTime    time.Time
	version      string
	configDigest string
}

// NewHandlers creates a new handlers instance.
func NewHandlers(fetcher Fetcher, startTime time.Time, version, configDigest string) (*Handlers, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("handlers: fetcher is required")
	}
	if version == "" {
		version = "dev"
	}

	return &Handlers{
		fetcher:      fetcher,
		startTime:    startTime,
		version:      version,
		configDigest: configDigest,
	}, nil
}

// writeJSON writes response with the given status code.
func writeJSON(w http.ResponseWriter, status int, response map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("response_encode_failed")
	}
}

// writeError writes the {"error": message} body used by every failure path.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
