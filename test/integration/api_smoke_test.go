package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/accessmap/backend/internal/app/apiapp"
	"github.com/accessmap/backend/internal/config"
)

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestAnonymousAuthIssuesToken(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	body := bytes.NewBufferString(`{"device_id":"smoke-device"}`)
	resp, err := http.Post(ts.URL+"/v1/auth/anonymous", "application/json", body)
	if err != nil {
		t.Fatalf("post auth: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		ExpiresInSec int64  `json:"expires_in_sec"`
		ActorID      string `json:"actor_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.AccessToken == "" || payload.ActorID != "smoke-device" || payload.ExpiresInSec <= 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	body := bytes.NewBufferString(`{"type":"ramp","lat":53.9,"lon":27.56}`)
	resp, err := http.Post(ts.URL+"/v1/reports", "application/json", body)
	if err != nil {
		t.Fatalf("post report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	return httptest.NewServer(app.Handler())
}
