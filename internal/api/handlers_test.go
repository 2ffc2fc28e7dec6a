package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/config"
	"github.com/susu3304/partybot/internal/ledger"
)

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) (*API, *ledger.Store) {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewStore(ledger.NewMemoryPersister(), ledger.WithClock(func() time.Time { return fixedNow }))

	_, _, err := store.CreateParty(ctx, "chan-1", "BBQ", 111, "a")
	require.NoError(t, err)
	for _, e := range []struct{ payer, amount string }{{"a", "30"}, {"b", "10"}, {"c", "20"}} {
		_, err := store.RecordExpense(ctx, "chan-1", "BBQ", e.payer, decimal.RequireFromString(e.amount), "")
		require.NoError(t, err)
	}
	_, _, err = store.CreateParty(ctx, "chan-2", "Picnic", 222, "z")
	require.NoError(t, err)

	a := New(&config.Config{JWTSecret: "test-secret", WebBind: "127.0.0.1:0"}, store, zap.NewNop())
	a.now = func() time.Time { return fixedNow }
	return a, store
}

func bearer(t *testing.T, a *API, userID string) string {
	t.Helper()
	token, err := IssueToken(a.jwtSecret, userID, "tester", fixedNow, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(a *API, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	a, _ := newTestAPI(t)
	w := do(a, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListParties(t *testing.T) {
	a, _ := newTestAPI(t)
	w := do(a, "GET", "/api/public/sessions/chan-1/parties", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"chan-1","parties":["BBQ"],"current_party":"BBQ"}`, w.Body.String())

	w = do(a, "GET", "/api/public/sessions/unknown/parties", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"unknown","parties":[],"current_party":""}`, w.Body.String())
}

func TestPartySummary(t *testing.T) {
	a, _ := newTestAPI(t)
	w := do(a, "GET", "/api/public/sessions/chan-1/parties/BBQ/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Average   json.Number `json:"average"`
		Total     json.Number `json:"total"`
		CreatorID *int64      `json:"creator_id"`
		Transfers []struct {
			From, To string
			Amount   json.Number
		} `json:"transfers"`
		Balances []struct {
			Name   string
			Amount json.Number
		} `json:"balances"`
		Expenses []struct {
			ID    string
			Payer string
		} `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "20.00", got.Average.String())
	assert.Equal(t, "60.00", got.Total.String())
	require.NotNil(t, got.CreatorID)
	assert.Equal(t, int64(111), *got.CreatorID)
	require.Len(t, got.Transfers, 1)
	assert.Equal(t, "b", got.Transfers[0].From)
	assert.Equal(t, "a", got.Transfers[0].To)
	assert.Equal(t, "10.00", got.Transfers[0].Amount.String())
	require.Len(t, got.Balances, 3)
	assert.Equal(t, "-10.00", got.Balances[1].Amount.String())
	require.Len(t, got.Expenses, 3)
	assert.NotEmpty(t, got.Expenses[0].ID)

	w = do(a, "GET", "/api/public/sessions/chan-1/parties/Nope/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPartyExport(t *testing.T) {
	a, _ := newTestAPI(t)
	w := do(a, "GET", "/api/public/sessions/chan-1/parties/BBQ/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "BBQ_summary.txt")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Party: BBQ\nCreator ID: 111\nGenerated: 2026-04-01T12:00:00.000000 UTC"))
}

func TestAuthMiddleware(t *testing.T) {
	a, _ := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, do(a, "GET", "/api/user/parties", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(a, "GET", "/api/user/parties", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(a, "GET", "/api/user/parties", "Bearer not.a.jwt").Code)

	expired, err := IssueToken(a.jwtSecret, "111", "x", fixedNow.Add(-48*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(a, "GET", "/api/user/parties", "Bearer "+expired).Code)

	forged, err := IssueToken([]byte("other-secret"), "111", "x", fixedNow, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(a, "GET", "/api/user/parties", "Bearer "+forged).Code)

	assert.Equal(t, http.StatusUnauthorized, do(a, "GET", "/api/user/parties", bearer(t, a, "not-a-number")).Code)
}

func TestUserParties(t *testing.T) {
	a, _ := newTestAPI(t)

	w := do(a, "GET", "/api/user/parties", bearer(t, a, "111"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"session_id":"chan-1","name":"BBQ"}]`, w.Body.String())

	w = do(a, "GET", "/api/user/parties", bearer(t, a, "999"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDeleteParty(t *testing.T) {
	a, store := newTestAPI(t)

	w := do(a, "DELETE", "/api/sessions/chan-1/parties/BBQ", bearer(t, a, "222"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []string{"BBQ"}, store.ListParties("chan-1"))

	w = do(a, "DELETE", "/api/sessions/chan-1/parties/Nope", bearer(t, a, "111"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a, "DELETE", "/api/sessions/chan-1/parties/BBQ", bearer(t, a, "111"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.ListParties("chan-1"))
	assert.Equal(t, "", store.CurrentParty("chan-1"))
}

func TestLoginNotConfigured(t *testing.T) {
	a, _ := newTestAPI(t)
	assert.Equal(t, http.StatusServiceUnavailable, do(a, "GET", "/api/auth/login", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(a, "GET", "/api/auth/callback", "").Code)
}

func TestLoginConfigured(t *testing.T) {
	a, _ := newTestAPI(t)
	a.oauthConfig.ClientID = "client"

	w := do(a, "GET", "/api/auth/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["state"], 32)
	assert.Contains(t, body["auth_url"], "client_id=client")
	assert.Contains(t, body["auth_url"], "state="+body["state"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, stateCookie, cookies[0].Name)
	assert.Equal(t, body["state"], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCallbackChecksState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth2/token":
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
		case "/users/@me":
			_, _ = w.Write([]byte(`{"id":"111","username":"ann"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, _ := newTestAPI(t)
	a.oauthConfig.ClientID = "client"
	a.oauthConfig.ClientSecret = "secret"
	a.oauthConfig.Endpoint.TokenURL = srv.URL + "/oauth2/token"
	a.discordAPI = srv.URL

	callback := func(state string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/auth/callback?code=abc&state="+state, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, callback("s1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, callback("s1", &http.Cookie{Name: stateCookie, Value: "s2"}).Code)
	assert.Equal(t, http.StatusBadRequest, callback("", &http.Cookie{Name: stateCookie, Value: ""}).Code)

	w := callback("s1", &http.Cookie{Name: stateCookie, Value: "s1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "111", body["user_id"])
	assert.NotEmpty(t, body["token"])

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, stateCookie, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestGetDiscordUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"123","username":"ann","global_name":"Ann"}`))
	}))
	defer srv.Close()

	a, _ := newTestAPI(t)
	a.discordAPI = srv.URL
	user, err := a.getDiscordUser(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "123", user.ID)
	assert.Equal(t, "Ann", getUsername(user))
}
