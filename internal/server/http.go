package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/config"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/emotion"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/metrics"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/session"
)

// DiagnosticsServer exposes local monitoring endpoints: session history,
// client statistics, the effective configuration and Prometheus metrics.
type DiagnosticsServer struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	sessions *session.Manager
	client   *emotion.Client
	metrics  *metrics.Metrics

	startTime time.Time
}

// NewDiagnosticsServer creates the diagnostics HTTP server
func NewDiagnosticsServer(cfg config.DiagnosticsConfig, logger *slog.Logger,
	appConfig *config.Config, sessions *session.Manager, client *emotion.Client, m *metrics.Metrics) *DiagnosticsServer {

	d := &DiagnosticsServer{
		logger:    logger,
		config:    appConfig,
		sessions:  sessions,
		client:    client,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	d.setupRoutes(mux)

	d.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return d
}

// setupRoutes configures the diagnostics routes
func (d *DiagnosticsServer) setupRoutes(mux *http.ServeMux) {
	// Local health check
	mux.HandleFunc("/health", d.withMetrics("/health", d.handleHealth))

	// Session monitoring endpoints
	mux.HandleFunc("/sessions", d.withMetrics("/sessions", d.handleSessions))
	mux.HandleFunc("/sessions/", d.withMetrics("/sessions/{id}", d.handleSessionDetail))

	// Configuration endpoint
	mux.HandleFunc("/config", d.withMetrics("/config", d.handleConfig))

	// Statistics endpoints
	mux.HandleFunc("/stats", d.withMetrics("/stats", d.handleStats))
	mux.HandleFunc("/stats/backend", d.withMetrics("/stats/backend", d.handleBackendStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", d.withMetrics("/", d.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (d *DiagnosticsServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		d.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			d.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the diagnostics server
func (d *DiagnosticsServer) Start() error {
	d.logger.Info("starting diagnostics server",
		slog.String("address", d.server.Addr))

	go func() {
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Error("diagnostics server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the diagnostics server
func (d *DiagnosticsServer) Stop(ctx context.Context) error {
	d.logger.Info("stopping diagnostics server")

	return d.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (d *DiagnosticsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(d.startTime)
	sessionStats := d.sessions.GetStats()
	clientStats := d.client.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "beyond-words-client",
			"version": "2.0.0",
		},
		"components": map[string]interface{}{
			"session_manager": map[string]interface{}{
				"status":             "running",
				"active_sessions":    sessionStats.ActiveSessions,
				"started_sessions":   sessionStats.StartedSessions,
				"completed_sessions": sessionStats.CompletedSessions,
				"failed_sessions":    sessionStats.FailedSessions,
			},
			"backend_client": map[string]interface{}{
				"status":          "running",
				"total_uploads":   clientStats.TotalUploads,
				"success_rate":    clientStats.SuccessRate,
				"active_requests": clientStats.ActiveRequests,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleSessions implements the /sessions endpoint
func (d *DiagnosticsServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	history := d.sessions.History()

	response := map[string]interface{}{
		"total_sessions": len(history),
		"timestamp":      time.Now().UTC(),
		"sessions":       history,
	}

	if active, ok := d.sessions.Active(); ok {
		response["active"] = active.Info()
		response["total_sessions"] = len(history) + 1
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSessionDetail implements the /sessions/{id} endpoint
func (d *DiagnosticsServer) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Path[len("/sessions/"):]
	if sessionID == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	found, exists := d.sessions.Get(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(found.Info())
}

// handleConfig implements the /config endpoint
func (d *DiagnosticsServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Return sanitized configuration (remove sensitive data)
	sanitizedConfig := map[string]interface{}{
		"backend": map[string]interface{}{
			"base_url":       d.config.Backend.BaseURL,
			"timeout":        d.config.Backend.Timeout,
			"max_retries":    d.config.Backend.MaxRetries,
			"max_concurrent": d.config.Backend.MaxConcurrent,
			"preserve_dir":   d.config.Backend.PreserveDir,
			// Note: API key is intentionally omitted for security
		},
		"audio": map[string]interface{}{
			"sample_rate": d.config.Audio.SampleRate,
			"channels":    d.config.Audio.Channels,
			"bit_depth":   d.config.Audio.BitDepth,
		},
		"capture": map[string]interface{}{
			"formats":         d.config.Capture.Formats,
			"meter_window_ms": d.config.Capture.MeterWindowMS,
		},
		"playback": map[string]interface{}{
			"enabled":   d.config.Playback.Enabled,
			"buffer_ms": d.config.Playback.BufferMS,
		},
		"diagnostics": map[string]interface{}{
			"address": d.config.Diagnostics.Address,
			"port":    d.config.Diagnostics.Port,
		},
		"logging": map[string]interface{}{
			"level":  d.config.Logging.Level,
			"format": d.config.Logging.Format,
			"output": d.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleStats implements the /stats endpoint
func (d *DiagnosticsServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(d.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"sessions":  d.sessions.GetStats(),
		"backend":   d.client.GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleBackendStats implements the /stats/backend endpoint
func (d *DiagnosticsServer) handleBackendStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := d.client.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot implements the / endpoint with API documentation
func (d *DiagnosticsServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Beyond Words Emotion Client",
		"version": "2.0.0",
		"endpoints": map[string]interface{}{
			"GET /":              "API documentation",
			"GET /health":        "Client health check",
			"GET /sessions":      "List recording sessions",
			"GET /sessions/{id}": "Get detailed session information",
			"GET /config":        "Get effective configuration",
			"GET /stats":         "Get client statistics",
			"GET /stats/backend": "Get backend client statistics",
			"GET /metrics":       "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
