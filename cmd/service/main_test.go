package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-forecast-service/internal/config"
	"github.com/kjstillabower/weather-forecast-service/internal/forecast"
	"github.com/kjstillabower/weather-forecast-service/internal/models"
)

func loadShippedConfig(t *testing.T, env string) *config.Config {
	t.Helper()
	t.Setenv("ENV_NAME", env)
	t.Setenv("SERVER_PORT", "")
	cfg, err := config.LoadDir(filepath.Join("..", "..", "config"))
	if err != nil {
		t.Fatalf("LoadDir(%s) error = %v", env, err)
	}
	return cfg
}

// TestNewServer_DevConfig wires the service from config/dev.yaml and serves the
// forecast, health and metrics routes end to end.
func TestNewServer_DevConfig(t *testing.T) {
	cfg := loadShippedConfig(t, "dev")
	core, logs := observer.New(zapcore.InfoLevel)
	var accessLog bytes.Buffer

	srv, err := newServer(cfg, zap.New(core), &accessLog)
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	if srv.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", srv.Addr)
	}
	if srv.ReadTimeout == 0 || srv.WriteTimeout == 0 {
		t.Errorf("server timeouts = (%v, %v), want both set", srv.ReadTimeout, srv.WriteTimeout)
	}
	if n := logs.FilterMessage("forecast generator ready").Len(); n != 1 {
		t.Errorf("generator ready log entries = %d, want 1", n)
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/WeatherForecast/Get")
	if err != nil {
		t.Fatalf("GET forecast: %v", err)
	}
	var records []models.WeatherForecast
	err = json.NewDecoder(resp.Body).Decode(&records)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forecast status = %d, want 200", resp.StatusCode)
	}
	if err != nil {
		t.Fatalf("decode forecast: %v", err)
	}
	if len(records) != forecast.Days {
		t.Errorf("len(records) = %d, want %d", len(records), forecast.Days)
	}

	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.StatusCode != http.StatusOK || health["status"] != "healthy" {
		t.Errorf("health = (%d, %v), want (200, healthy)", resp.StatusCode, health["status"])
	}
	if health["version"] != version {
		t.Errorf("health version = %v, want %s", health["version"], version)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", resp.StatusCode)
	}

	// dev.yaml enables the access log
	if !strings.Contains(accessLog.String(), "GET /WeatherForecast/Get") {
		t.Errorf("access log = %q, want forecast request line", accessLog.String())
	}
}

// TestNewServer_ProdConfigDisablesAccessLog verifies that config/prod.yaml loads and
// that server.access_log: false keeps the writer silent.
func TestNewServer_ProdConfigDisablesAccessLog(t *testing.T) {
	cfg := loadShippedConfig(t, "prod")
	var accessLog bytes.Buffer

	srv, err := newServer(cfg, zap.NewNop(), &accessLog)
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/WeatherForecast/Get", nil))

	if w.Code != http.StatusOK {
		t.Errorf("forecast status = %d, want 200", w.Code)
	}
	if accessLog.Len() != 0 {
		t.Errorf("access log = %q, want empty", accessLog.String())
	}
}

func TestNewServer_RejectsInvalidSummaries(t *testing.T) {
	cfg := loadShippedConfig(t, "dev")
	cfg.Summaries = []string{"only-one"}

	if _, err := newServer(cfg, zap.NewNop(), nil); err == nil {
		t.Error("newServer() expected error for invalid summaries")
	}
}
