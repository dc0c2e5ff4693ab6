package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/config"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/emotion"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/metrics"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/session"
)

// Prometheus collectors register globally, so all tests share one instance.
var testMetrics = metrics.NewMetrics()

type diagnosticsFixture struct {
	server   *httptest.Server
	sessions *session.Manager
}

func newDiagnosticsFixture(t *testing.T) *diagnosticsFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Backend.APIKey = "secret-token"

	client, err := emotion.NewClient(emotion.Config{BaseURL: cfg.Backend.BaseURL}, logger)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	sessions := session.NewManager(logger, time.Minute, 8)
	t.Cleanup(sessions.Stop)

	d := NewDiagnosticsServer(cfg.Diagnostics, logger, cfg, sessions, client, testMetrics)

	ts := httptest.NewServer(d.server.Handler)
	t.Cleanup(ts.Close)

	return &diagnosticsFixture{server: ts, sessions: sessions}
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestDiagnosticsRoot(t *testing.T) {
	f := newDiagnosticsFixture(t)

	var doc map[string]interface{}
	if code := getJSON(t, f.server.URL+"/", &doc); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if doc["service"] != "Beyond Words Emotion Client" {
		t.Errorf("Unexpected service name: %v", doc["service"])
	}

	if _, ok := doc["endpoints"]; !ok {
		t.Error("Expected endpoint documentation")
	}
}

func TestDiagnosticsHealth(t *testing.T) {
	f := newDiagnosticsFixture(t)

	var health map[string]interface{}
	if code := getJSON(t, f.server.URL+"/health", &health); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if health["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", health["status"])
	}

	components, ok := health["components"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected components map")
	}

	if _, ok := components["session_manager"]; !ok {
		t.Error("Expected session_manager component")
	}

	if _, ok := components["backend_client"]; !ok {
		t.Error("Expected backend_client component")
	}
}

func TestDiagnosticsHealthMethodNotAllowed(t *testing.T) {
	f := newDiagnosticsFixture(t)

	resp, err := http.Post(f.server.URL+"/health", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", resp.StatusCode)
	}
}

func TestDiagnosticsSessions(t *testing.T) {
	f := newDiagnosticsFixture(t)

	var listing map[string]interface{}
	if code := getJSON(t, f.server.URL+"/sessions", &listing); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if listing["total_sessions"] != float64(0) {
		t.Errorf("Expected empty session list, got %v", listing["total_sessions"])
	}

	// An in-flight session shows up as active
	active, err := f.sessions.Begin()
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	listing = nil
	getJSON(t, f.server.URL+"/sessions", &listing)

	if listing["total_sessions"] != float64(1) {
		t.Errorf("Expected 1 session, got %v", listing["total_sessions"])
	}

	if _, ok := listing["active"]; !ok {
		t.Error("Expected active session in listing")
	}

	// A finished session moves into the history array
	active.Fail(fmt.Errorf("canceled"))

	listing = nil
	getJSON(t, f.server.URL+"/sessions", &listing)

	history, ok := listing["sessions"].([]interface{})
	if !ok || len(history) != 1 {
		t.Errorf("Expected 1 finished session, got %v", listing["sessions"])
	}
}

func TestDiagnosticsSessionDetail(t *testing.T) {
	f := newDiagnosticsFixture(t)

	active, err := f.sessions.Begin()
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	var info session.Info
	if code := getJSON(t, f.server.URL+"/sessions/"+active.ID, &info); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if info.ID != active.ID {
		t.Errorf("Expected session %s, got %s", active.ID, info.ID)
	}

	if info.State != session.StateRecording {
		t.Errorf("Expected recording state, got %s", info.State)
	}

	if code := getJSON(t, f.server.URL+"/sessions/no-such-id", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", code)
	}
}

func TestDiagnosticsConfigRedactsAPIKey(t *testing.T) {
	f := newDiagnosticsFixture(t)

	resp, err := http.Get(f.server.URL + "/config")
	if err != nil {
		t.Fatalf("GET /config failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	if strings.Contains(string(body), "secret-token") {
		t.Error("Expected API key to be redacted from /config")
	}

	if !strings.Contains(string(body), "base_url") {
		t.Error("Expected backend settings in /config")
	}
}

func TestDiagnosticsStats(t *testing.T) {
	f := newDiagnosticsFixture(t)

	var stats map[string]interface{}
	if code := getJSON(t, f.server.URL+"/stats", &stats); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if _, ok := stats["sessions"]; !ok {
		t.Error("Expected session stats")
	}

	if _, ok := stats["backend"]; !ok {
		t.Error("Expected backend stats")
	}

	var backend emotion.ClientStats
	if code := getJSON(t, f.server.URL+"/stats/backend", &backend); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if backend.TotalUploads != 0 {
		t.Errorf("Expected zero uploads, got %d", backend.TotalUploads)
	}
}

func TestDiagnosticsMetricsEndpoint(t *testing.T) {
	f := newDiagnosticsFixture(t)

	resp, err := http.Get(f.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	if !strings.Contains(string(body), "emotion_recordings_started_total") {
		t.Error("Expected client metrics in Prometheus exposition")
	}
}
