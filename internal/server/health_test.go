package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

// fakePinger is a Pinger with a fixed outcome.
type fakePinger struct {
	name string
	err  error
}

func (f *fakePinger) Name() string               { return f.name }
func (f *fakePinger) Ping(context.Context) error { return f.err }

func Test_HandleReady_AllProbesHealthy(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &Config{Pingers: []Pinger{
		&fakePinger{name: "embedder/ollama"},
		&fakePinger{name: "model/ollama"},
	}})

	rec := ts.do(t, http.MethodGet, "/api/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("response = %+v, want ready with 2 checks", resp)
	}
}

func Test_HandleReady_FailingProbeIs503(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &Config{Pingers: []Pinger{
		&fakePinger{name: "embedder/openai"},
		&fakePinger{name: "model/openai", err: fmt.Errorf("connection refused")},
	}})

	rec := ts.do(t, http.MethodGet, "/api/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ready {
		t.Error("Ready = true with a failing probe")
	}
	if len(resp.Checks) != 2 || resp.Checks[1].OK || resp.Checks[1].Error == "" {
		t.Errorf("checks = %+v, want second check failed with reason", resp.Checks)
	}
}

func Test_HandleReady_NoPingersMeansLivenessOnly(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	if rec := ts.do(t, http.MethodGet, "/api/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no probes configured", rec.Code)
	}
}

func Test_MultiPinger_ReturnsFirstFailure(t *testing.T) {
	t.Parallel()

	mp := NewMultiPinger(
		&fakePinger{name: "a"},
		&fakePinger{name: "b", err: fmt.Errorf("down")},
		&fakePinger{name: "c", err: fmt.Errorf("also down")},
	)
	err := mp.Ping(t.Context())
	if err == nil {
		t.Fatal("Ping = nil, want first failure")
	}
	if got := err.Error(); got != "b: down" {
		t.Errorf("Ping error = %q, want %q", got, "b: down")
	}
}
