package debugserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthzReportsOK(t *testing.T) {
	tracker := &Tracker{}
	srv := New(":0", tracker, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProgressReflectsLatestUpdate(t *testing.T) {
	tracker := &Tracker{}
	tracker.Update(Progress{Replicate: 2, Step: 5, Timesteps: 10})
	srv := New(":0", tracker, nil)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"replicate":2`) || !strings.Contains(body, `"step":5`) {
		t.Fatalf("unexpected progress body: %s", body)
	}
}

func TestConfigServesProvidedLines(t *testing.T) {
	srv := New(":0", &Tracker{}, []string{"alpha", "beta(1 m)"})

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "alpha") {
		t.Fatalf("expected config body to include alpha, got %s", rec.Body.String())
	}
}
