package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kay0310/toolboxtalk-v27/internal/auth"
	"github.com/Kay0310/toolboxtalk-v27/internal/config"
	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/metrics"
	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
	"github.com/Kay0310/toolboxtalk-v27/internal/service/minutes"
	"github.com/Kay0310/toolboxtalk-v27/internal/store/sqlite"
)

// startTestServer wires the full stack on an in-memory archive. opts adjust the
// config after the test defaults are applied.
func startTestServer(t *testing.T, opts ...func(*config.Config)) *httptest.Server {
	t.Helper()

	archive, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })

	tokens, err := auth.NewService(&auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	hub := core.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	disabledLogger := zerolog.New(nil)
	m := metrics.New()

	cfg := config.Default()
	cfg.Mode = "test"
	cfg.Timezone = "UTC"
	cfg.RateLimitPerMin = 0
	for _, opt := range opts {
		opt(&cfg)
	}

	svc := minutes.New(minutes.Deps{
		Rooms:          core.NewRoomStore(core.WithFooter(cfg.Footer)),
		Hub:            hub,
		Archive:        archive,
		Tokens:         tokens,
		Metrics:        m,
		Log:            disabledLogger,
		DefaultMembers: cfg.DefaultMembers,
	})

	server := NewServer(svc, tokens, m, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// doJSON sends body as JSON and decodes the response into out when non-nil.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func login(t *testing.T, ts *httptest.Server, name, role, code, members string) proto.LoginResponse {
	t.Helper()

	var resp proto.LoginResponse
	status := doJSON(t, ts, http.MethodPost, "/api/login", "", proto.LoginRequest{
		Name: name, Role: role, RoomCode: code, Members: members,
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("login %s: expected 201, got %d", name, status)
	}
	return resp
}

func action(t *testing.T, kind string, payload any) proto.ActionRequest {
	t.Helper()

	req := proto.ActionRequest{Action: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		req.Payload = raw
	}
	return req
}
