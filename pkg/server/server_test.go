package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voicepipe/voicepipe/internal/metrics"
	"github.com/voicepipe/voicepipe/pkg/llm"
	"github.com/voicepipe/voicepipe/pkg/server"
	"github.com/voicepipe/voicepipe/pkg/session"
	"github.com/voicepipe/voicepipe/pkg/stt"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	pipeline, err := session.NewPipeline(session.Config{
		STT:       stt.NewMockService(),
		Generator: llm.NewMock(),
		Synth:     tts.NewMock(),
		Metrics:   metrics.New(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	srv, err := server.New(server.Config{
		Address:  ":0",
		Pipeline: pipeline,
		Metrics:  metrics.New(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status         string `json:"status"`
		Version        string `json:"version"`
		Uptime         string `json:"uptime"`
		ActiveSessions int64  `json:"active_sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.Version != server.Version {
		t.Errorf("expected version %s, got %q", server.Version, body.Version)
	}
	if body.Uptime == "" {
		t.Error("expected uptime to be reported")
	}
	if body.ActiveSessions != 0 {
		t.Errorf("expected no active sessions, got %d", body.ActiveSessions)
	}
}

func TestVoices(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/voices", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Voices []string `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	want := tts.Voices()
	if len(body.Voices) != len(want) {
		t.Fatalf("expected %d voices, got %d", len(want), len(body.Voices))
	}
	for i := range want {
		if body.Voices[i] != want[i] {
			t.Errorf("voice %d: expected %s, got %s", i, want[i], body.Voices[i])
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "voicepipe_sessions_started_total") {
		t.Error("expected pipeline metrics in exposition")
	}
}

func TestListenRequiresUpgrade(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/listen", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestNewRequiresPipeline(t *testing.T) {
	if _, err := server.New(server.Config{Address: ":0"}); err == nil {
		t.Fatal("expected error without pipeline")
	}
}
