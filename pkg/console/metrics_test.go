package console

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-go/voice-console/pkg/audio"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.sessionStarted()
	m.sessionEnded()
	m.eventRecorded("server")
	m.audioSent(100)
	m.audioReceived(100)
	m.interrupted()
	m.errorSeen()
}

func TestMetricsTrackSessionLifecycle(t *testing.T) {
	m := NewMetrics("test")
	s, _, _, _ := newTestSession(t, Config{Metrics: m})

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Errorf("expected 1 active session, got %v", got)
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("expected 0 active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsTotal); got != 1 {
		t.Errorf("expected 1 total session, got %v", got)
	}
}

func TestMetricsCountInterruptions(t *testing.T) {
	m := NewMetrics("test")
	s, client, _, player := newTestSession(t, Config{Metrics: m})
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// No active track: not an interruption.
	client.handlers.Interrupted()
	if got := testutil.ToFloat64(m.InterruptionsTotal); got != 0 {
		t.Errorf("expected 0 interruptions without a track, got %v", got)
	}

	player.offset = &audio.TrackOffset{TrackID: "t1", Offset: 100}
	client.handlers.Interrupted()
	if got := testutil.ToFloat64(m.InterruptionsTotal); got != 1 {
		t.Errorf("expected 1 interruption, got %v", got)
	}
}

func TestMetricsHandlerServes(t *testing.T) {
	m := NewMetrics("test")
	m.sessionStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_sessions_total 1") {
		t.Errorf("expected sessions counter in output, got:\n%s", rec.Body.String())
	}
}
