package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"fairdice/models"
	"fairdice/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	server       *Server
	accounts     *service.MockAccountService
	games        *service.MockGameService
	wagers       *service.MockWagerService
	seeds        *service.MockSeedService
	verification *service.MockVerificationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		accounts:     new(service.MockAccountService),
		games:        new(service.MockGameService),
		wagers:       new(service.MockWagerService),
		seeds:        new(service.MockSeedService),
		verification: new(service.MockVerificationService),
	}
	ts.server = NewServer(":0", testSecret, Services{
		Accounts:     ts.accounts,
		Games:        ts.games,
		Wagers:       ts.wagers,
		Seeds:        ts.seeds,
		Verification: ts.verification,
	})
	t.Cleanup(func() {
		ts.accounts.AssertExpectations(t)
		ts.games.AssertExpectations(t)
		ts.wagers.AssertExpectations(t)
		ts.seeds.AssertExpectations(t)
		ts.verification.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, accountID int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if accountID > 0 {
		token, err := IssueToken(testSecret, accountID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/healthz", "", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	valid := func(sub string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"wrong secret", "Bearer " + sign(jwt.SigningMethodHS256, []byte("other"), valid("42"))},
		{"wrong algorithm", "Bearer " + sign(jwt.SigningMethodHS512, testSecret, valid("42"))},
		{"expired", "Bearer " + sign(jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
			Subject: "42", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})},
		{"no expiry", "Bearer " + sign(jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "42"})},
		{"non numeric subject", "Bearer " + sign(jwt.SigningMethodHS256, testSecret, valid("alice"))},
		{"zero subject", "Bearer " + sign(jwt.SigningMethodHS256, testSecret, valid("0"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			ts.server.Router().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decodeError(t, w).Error)
		})
	}
}

func TestAccountRoutes(t *testing.T) {
	ts := newTestServer(t)
	account := &models.Account{ID: 42, Balance: decimal.RequireFromString("1000.00")}

	ts.accounts.On("OpenAccount", mock.Anything, int64(42)).Return(account, nil)
	ts.accounts.On("GetAccount", mock.Anything, int64(42)).Return(account, nil)

	w := ts.do(t, http.MethodPost, "/api/account", "", 42)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/account", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t)
	ts.games.On("ListGames", mock.Anything).Return([]*models.GameConfig{
		{ID: 1, Name: "Nvuti", GameType: models.GameTypeDice, HouseEdge: decimal.NewFromInt(5)},
	}, nil)

	w := ts.do(t, http.MethodGet, "/api/games", "", 42)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Nvuti"`)
}

func TestPlaceBet(t *testing.T) {
	t.Run("settles the wager", func(t *testing.T) {
		ts := newTestServer(t)
		outcome := &models.WagerOutcome{
			BetID:          uuid.New(),
			ResultNumber:   decimal.RequireFromString("12.34"),
			WinChance:      decimal.NewFromInt(50),
			Multiplier:     decimal.RequireFromString("1.90"),
			IsWin:          true,
			Stake:          decimal.NewFromInt(10),
			Payout:         decimal.RequireFromString("19.00"),
			NetChange:      decimal.RequireFromString("9.00"),
			NewBalance:     decimal.RequireFromString("1009.00"),
			ServerSeedHash: "hash",
			ClientSeed:     "client",
			Nonce:          0,
		}
		ts.wagers.On("PlaceWager", mock.Anything, int64(42), decEq("50"), decEq("10")).Return(outcome, nil)

		w := ts.do(t, http.MethodPost, "/api/games/dice/bet", `{"win_chance": 50, "amount": "10"}`, 42)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.WagerOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, outcome.BetID, got.BetID)
		assert.True(t, got.Payout.Equal(outcome.Payout))
	})

	t.Run("missing fields", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodPost, "/api/games/dice/bet", `{"win_chance": 50}`, 42)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation", decodeError(t, w).Error)

		w = ts.do(t, http.MethodPost, "/api/games/dice/bet", `not json`, 42)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{"validation", service.NewError(service.KindValidation, "win chance must be between 1.00 and 95.00", nil), http.StatusBadRequest, "validation", "win chance must be between 1.00 and 95.00"},
		{"insufficient funds", service.NewError(service.KindInsufficientFunds, "insufficient balance", nil), http.StatusUnprocessableEntity, "insufficient_funds", "insufficient balance"},
		{"not found", service.NewError(service.KindNotFound, "account 42 not found", nil), http.StatusNotFound, "not_found", "account 42 not found"},
		{"conflict", service.NewError(service.KindConflict, "settle_wager conflicted after 3 attempts", nil), http.StatusConflict, "conflict", "settle_wager conflicted after 3 attempts"},
		{"store unavailable", service.NewError(service.KindStoreUnavailable, "database unavailable", nil), http.StatusServiceUnavailable, "store_unavailable", "database unavailable"},
		{"unclassified", errors.New("pq: something leaked"), http.StatusInternalServerError, "internal", "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.wagers.On("PlaceWager", mock.Anything, int64(42), mock.Anything, mock.Anything).Return(nil, tt.err)

			w := ts.do(t, http.MethodPost, "/api/games/dice/bet", `{"win_chance": 50, "amount": 10}`, 42)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decodeError(t, w)
			assert.Equal(t, tt.wantKind, resp.Error)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestSeedRoutes(t *testing.T) {
	t.Run("peek", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seeds.On("PeekActive", mock.Anything, int64(42)).Return(&models.SeedInfo{ServerSeedHash: "h", ClientSeed: "c", Nonce: 3}, nil)

		w := ts.do(t, http.MethodGet, "/api/games/dice/seed", "", 42)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"server_seed_hash":"h","client_seed":"c","nonce":3}`, w.Body.String())
	})

	t.Run("rotate without body", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seeds.On("Rotate", mock.Anything, int64(42), (*string)(nil)).Return(&models.SeedRotation{NewServerSeedHash: "h2", NewClientSeed: "c2"}, nil)

		w := ts.do(t, http.MethodPost, "/api/games/dice/seed/rotate", "", 42)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rotate with client seed", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seeds.On("Rotate", mock.Anything, int64(42), mock.MatchedBy(func(s *string) bool {
			return s != nil && *s == "mine"
		})).Return(&models.SeedRotation{NewServerSeedHash: "h2", NewClientSeed: "mine"}, nil)

		w := ts.do(t, http.MethodPost, "/api/games/dice/seed/rotate", `{"new_client_seed":"mine"}`, 42)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("revealed with limit", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seeds.On("ListRevealed", mock.Anything, int64(42), 5).Return([]*models.RevealedSeed{}, nil)

		w := ts.do(t, http.MethodGet, "/api/games/dice/seeds/revealed?limit=5", "", 42)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBetHistoryRoutes(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		ts := newTestServer(t)
		ts.wagers.On("ListWagers", mock.Anything, int64(42), 0).Return([]*models.Wager{}, nil)

		w := ts.do(t, http.MethodGet, "/api/games/dice/bets", "", 42)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/api/games/dice/bets?limit=abc", "", 42)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("verify bet", func(t *testing.T) {
		ts := newTestServer(t)
		betID := uuid.New()
		ts.verification.On("VerifyWager", mock.Anything, int64(42), betID).Return(&models.WagerVerification{BetID: betID, Verified: true}, nil)

		w := ts.do(t, http.MethodGet, "/api/games/dice/bets/"+betID.String()+"/verify", "", 42)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"verified":true`)
	})

	t.Run("verify bet with malformed id", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodGet, "/api/games/dice/bets/not-a-uuid/verify", "", 42)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVerifyFairness(t *testing.T) {
	ts := newTestServer(t)
	secret := strings.Repeat("a", 64)

	body, err := json.Marshal(map[string]interface{}{
		"server_seed":      secret,
		"server_seed_hash": "ffe054fe7ae0cb6dc65c3af9b61d5209f439851db43d0ba5997337df154668eb",
		"client_seed":      "client",
		"nonce":            0,
	})
	require.NoError(t, err)

	w := ts.do(t, http.MethodPost, "/api/fairness/verify", string(body), 0)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "52.94", resp["result_number"])
	assert.Equal(t, true, resp["commitment_matches"])

	w = ts.do(t, http.MethodPost, "/api/fairness/verify", `{"server_seed":"x","client_seed":"c","nonce":-1}`, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/fairness/verify", `{"server_seed":"x","client_seed":"c"}`, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
