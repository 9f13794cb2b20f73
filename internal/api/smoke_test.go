// Package api_test runs HTTP-level smoke tests using net/http/httptest.
// These tests do NOT require a PostgreSQL database — they verify:
//   - Gin router routing and middleware wiring
//   - Request validation error responses (400)
//   - Identity middleware (401 without X-Account-ID, 401 with garbage)
//   - Response format consistency (success/error envelope)
//   - CORS preflight handling
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/betwise-ng/betwise/internal/api"
	"github.com/betwise-ng/betwise/internal/config"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func testCfg() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:  "development",
			Port: "8080",
		},
		Betting: config.BettingConfig{
			MinStake: 1,
			MaxStake: 100000,
		},
		Wallet: config.WalletConfig{
			MinWithdraw:      10,
			MaxDailyWithdraw: 50000,
		},
	}
}

// buildTestRouter creates a Gin engine with nil services.  Every request
// exercised here is rejected by middleware or request validation before any
// service call, so no database is needed.
func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return api.SetupRouter(api.RouterDeps{
		AdmissionSvc: nil,
		WalletSvc:    nil,
		GameSvc:      nil,
		Hub:          nil,
		Cfg:          testCfg(),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("response is not valid JSON: %v — body: %s", err, rr.Body.String())
	}
	return m
}

const testAccountID = "11111111-1111-1111-1111-111111111111"

func identityHeader() map[string]string {
	return map[string]string{"X-Account-ID": testAccountID}
}

// ── /health ───────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}
}

// ── Identity middleware (no header → 401) ─────────────────────────────────────

func TestMyBets_NoIdentity_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/bets/my", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/bets/my without identity = %d, want 401", rr.Code)
	}
}

func TestPlaceBet_NoIdentity_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"type":"single","stake":"100.00","selections":[{"game_id":"` + testAccountID + `","outcome":"home"}]}`
	rr := do(t, h, http.MethodPost, "/api/bets", payload, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/bets without identity = %d, want 401", rr.Code)
	}
}

func TestWalletBalance_NoIdentity_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/wallet", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/wallet without identity = %d, want 401", rr.Code)
	}
}

func TestWithdraw_NoIdentity_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"amount":"100.00"}`
	rr := do(t, h, http.MethodPost, "/api/wallet/withdrawals", payload, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/wallet/withdrawals without identity = %d, want 401", rr.Code)
	}
}

// ── Identity middleware (malformed header → 401) ──────────────────────────────

func TestMalformedIdentity_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/wallet", "", map[string]string{
		"X-Account-ID": "not-a-uuid",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/wallet with malformed identity = %d, want 401", rr.Code)
	}
}

// ── Request validation (identity present, bad body → 400) ─────────────────────

func TestPlaceBet_EmptyBody_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/bets", `{}`, identityHeader())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /api/bets empty body = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Errorf("response.success should be false on error, got %v", body["success"])
	}
	if body["code"] == nil {
		t.Errorf("error envelope missing 'code', got: %v", body)
	}
}

func TestPlaceBet_NonDecimalStake_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"type":"single","stake":"lots","selections":[{"game_id":"` + testAccountID + `","outcome":"home"}]}`
	rr := do(t, h, http.MethodPost, "/api/bets", payload, identityHeader())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("place bet with non-decimal stake = %d, want 400", rr.Code)
	}
}

func TestPlaceBet_BadGameID_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"type":"single","stake":"100.00","selections":[{"game_id":"nope","outcome":"home"}]}`
	rr := do(t, h, http.MethodPost, "/api/bets", payload, identityHeader())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("place bet with bad game id = %d, want 400", rr.Code)
	}
}

func TestTopUp_MissingAmount_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/wallet/topup", `{}`, identityHeader())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /api/wallet/topup empty body = %d, want 400", rr.Code)
	}
}

func TestWithdraw_NonDecimalAmount_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/wallet/withdrawals", `{"amount":"abc"}`, identityHeader())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("withdraw with non-decimal amount = %d, want 400", rr.Code)
	}
}

func TestGetBet_BadID_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/bets/not-a-uuid", "", identityHeader())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GET /api/bets/not-a-uuid = %d, want 400", rr.Code)
	}
}

// ── Games public endpoints ────────────────────────────────────────────────────

func TestGames_IsPublic(t *testing.T) {
	h := buildTestRouter(t)
	// No identity header: should NOT be 401. Will be 500 (nil gameSvc) — acceptable.
	rr := do(t, h, http.MethodGet, "/api/games", "", nil)
	if rr.Code == http.StatusUnauthorized {
		t.Error("GET /api/games should be a public endpoint (no 401)")
	}
	t.Logf("GET /api/games = %d (not 401, public route OK)", rr.Code)
}

func TestGameByID_BadID_Returns400(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/games/not-a-uuid", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GET /api/games/not-a-uuid = %d, want 400", rr.Code)
	}
}

// ── Error envelope format ─────────────────────────────────────────────────────

func TestErrorEnvelope_HasRequiredFields(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/bets", `{}`, identityHeader())
	body := decodeBody(t, rr)

	for _, field := range []string{"success", "error", "code"} {
		if _, ok := body[field]; !ok {
			t.Errorf("error envelope missing field %q, got: %v", field, body)
		}
	}
	if body["success"] != false {
		t.Errorf("error envelope.success = %v, want false", body["success"])
	}
}

// ── CORS headers ──────────────────────────────────────────────────────────────

func TestCORSOptionsRequest(t *testing.T) {
	h := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/bets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// OPTIONS should return 204 (no content) in dev mode
	if rr.Code != http.StatusNoContent && rr.Code != http.StatusOK {
		t.Errorf("OPTIONS /api/bets = %d, want 204 or 200", rr.Code)
	}
	allow := rr.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allow, "POST") {
		t.Errorf("Access-Control-Allow-Methods missing POST, got %q", allow)
	}
}

func TestCORSAllowOrigin_Dev(t *testing.T) {
	h := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// In dev mode, CORS origin should be wildcard
	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "*" {
		t.Errorf("Dev CORS origin = %q, want *", origin)
	}
}
