package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gridfx-config-bot/internal/executor"
)

func testServer(t *testing.T, autoApprove bool) *Server {
	t.Helper()
	opts := executor.DefaultOptions()
	opts.DefaultGroups = 5
	opts.RateLimit = 0
	opts.AutoApprove = autoApprove
	engine := executor.New(opts, executor.Collaborators{}, zerolog.Nop())

	return NewServer(ServerConfig{
		Host: "127.0.0.1", Port: 0,
		AllowedOrigins: []string{"*"},
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		ProductionMode: true,
	}, engine, nil, nil, zerolog.Nop())
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// TestHealthEndpoint verifies the unauthenticated health check
func TestHealthEndpoint(t *testing.T) {
	s := testServer(t, false)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

// TestCommandStagesAndApproves verifies the HTTP command/approve flow
func TestCommandStagesAndApproves(t *testing.T) {
	s := testServer(t, false)

	w := doJSON(t, s, http.MethodPost, "/api/command",
		commandRequest{Command: "set grid to 600 for groups 1-3 power engine a"})
	if w.Code != http.StatusOK {
		t.Fatalf("command status = %d: %s", w.Code, w.Body.String())
	}
	var result executor.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.PendingPlan == nil || len(result.PendingPlan.Preview) != 3 {
		t.Fatalf("pending plan = %+v, want 3 previews", result.PendingPlan)
	}

	// The pending plan is visible and aggregatable.
	w = doJSON(t, s, http.MethodGet, "/api/plan", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("plan status = %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/plan/aggregate?dimension=field", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("aggregate status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodPost, "/api/plan/approve", approveRequest{Selection: "all"})
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", w.Code, w.Body.String())
	}

	// No pending plan remains; aggregate now 404s.
	w = doJSON(t, s, http.MethodGet, "/api/plan/aggregate", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("aggregate after approve = %d, want 404", w.Code)
	}
}

// TestCommandValidation verifies bad payloads and bad dimensions
func TestCommandValidation(t *testing.T) {
	s := testServer(t, false)

	w := doJSON(t, s, http.MethodPost, "/api/command", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty payload = %d, want 400", w.Code)
	}

	doJSON(t, s, http.MethodPost, "/api/command",
		commandRequest{Command: "set grid to 600 for group 1"})
	w = doJSON(t, s, http.MethodGet, "/api/plan/aggregate?dimension=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad dimension = %d, want 400", w.Code)
	}
}

// TestRejectEndpoint verifies plan discard over HTTP
func TestRejectEndpoint(t *testing.T) {
	s := testServer(t, false)

	doJSON(t, s, http.MethodPost, "/api/command",
		commandRequest{Command: "set grid to 600 for group 1"})
	w := doJSON(t, s, http.MethodPost, "/api/plan/reject", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reject status = %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/plan", nil)
	var payload struct {
		Pending *json.RawMessage `json:"pending"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if payload.Pending != nil {
		t.Error("pending plan should be nil after reject")
	}
}

// TestHistoryEndpoint verifies history listing after auto-approved changes
func TestHistoryEndpoint(t *testing.T) {
	s := testServer(t, true)

	doJSON(t, s, http.MethodPost, "/api/command",
		commandRequest{Command: "set grid to 600 for group 1 power engine a"})
	w := doJSON(t, s, http.MethodGet, "/api/history?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var payload struct {
		History []json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(payload.History) != 1 {
		t.Errorf("history entries = %d, want 1", len(payload.History))
	}
}

// TestLoginDisabled verifies login 404s when auth is off
func TestLoginDisabled(t *testing.T) {
	s := testServer(t, false)
	w := doJSON(t, s, http.MethodPost, "/api/auth/login",
		loginRequest{Username: "operator", Password: "pw"})
	if w.Code != http.StatusNotFound {
		t.Errorf("login status = %d, want 404 with auth disabled", w.Code)
	}
}
