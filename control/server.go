package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Strum355/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sv4u/audiodl/control/handlers"
	"github.com/sv4u/audiodl/download/logging"
)

// RequestIDHeader carries the per-request id back to the client.
const RequestIDHeader = "X-Request-Id"

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port int
	// ExtractTimeout bounds one download; writes get a minute more so the
	// attachment can finish streaming.
	ExtractTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	config     *ServerConfig
	httpServer *http.Server
	router     *mux.Router
	handlers   *handlers.Handlers
}

// NewServer creates a new server around h.
func NewServer(config *ServerConfig, h *handlers.Handlers) *Server {
	router := mux.NewRouter()

	server := &Server{
		config:   config,
		router:   router,
		handlers: h,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           recoveryMiddleware(requestLogMiddleware(router)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      config.ExtractTimeout + time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	return server
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handlers.Home).Methods("GET")
	s.router.HandleFunc("/download", s.handlers.Download).Methods("POST")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handlers.Health).Methods("GET")
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	log.WithContext(logging.WithFields(context.Background(), log.Fields{"addr": s.httpServer.Addr})).Info("server_listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server, waiting for in-flight downloads.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogMiddleware assigns a request id, attaches it to the request
// context for log.WithContext and logs one line per request.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		w.Header().Set(RequestIDHeader, id.String())

		ctx := logging.WithFields(r.Context(), log.Fields{
			"request_id": id.String(),
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		ctx = logging.WithFields(ctx, log.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		log.WithContext(ctx).Info("request_complete")
	})
}

// recoveryMiddleware wraps an http.Handler to recover from panics and return a proper error response.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				ctx := logging.WithFields(r.Context(), log.Fields{"panic": fmt.Sprint(err), "stack": string(debug.Stack())})
				log.WithContext(ctx).Error("handler_panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)

				response := map[string]interface{}{
					"error": "Internal server error",
				}
				if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
					_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
