package mockserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/mockserver/config"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	s, err := New(cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.HeaderAuthorization, common.BearerPrefix+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func data[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var env wire.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	require.True(t, env.Success)
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func errorBody(t *testing.T, raw []byte) wire.ErrorBody {
	t.Helper()
	var b wire.ErrorBody
	require.NoError(t, json.Unmarshal(raw, &b))
	return b
}

func login(t *testing.T, ts *httptest.Server) wire.LoginResponse {
	t.Helper()
	status, raw := call(t, ts, http.MethodPost, "/api/auth/login", "", wire.LoginRequest{Email: "admin@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, status, string(raw))
	return data[wire.LoginResponse](t, raw)
}

func TestLogin(t *testing.T) {
	s, ts := newTestServer(t)

	lr := login(t, ts)
	assert.NotEmpty(t, lr.AccessToken)
	assert.NotEmpty(t, lr.RefreshToken)
	assert.Equal(t, "admin@example.com", lr.User.Email)
	assert.Equal(t, int64(1), s.LoginCalls())

	status, raw := call(t, ts, http.MethodPost, "/api/auth/login", "", wire.LoginRequest{Email: "admin@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeInvalidCredentials, errorBody(t, raw).Code)

	status, raw = call(t, ts, http.MethodPost, "/api/auth/login", "", wire.LoginRequest{Email: "admin"})
	assert.Equal(t, http.StatusBadRequest, status)
	b := errorBody(t, raw)
	assert.Equal(t, http.StatusBadRequest, b.StatusCode)
	assert.Len(t, b.Message, 2)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	s, ts := newTestServer(t)
	lr := login(t, ts)

	status, raw := call(t, ts, http.MethodPost, "/api/auth/refresh", "", wire.RefreshRequest{RefreshToken: lr.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	pair := data[wire.TokenPair](t, raw)
	assert.NotEqual(t, lr.RefreshToken, pair.RefreshToken)

	status, raw = call(t, ts, http.MethodPost, "/api/auth/refresh", "", wire.RefreshRequest{RefreshToken: lr.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeRefreshTokenInvalid, errorBody(t, raw).Code)
	assert.Equal(t, int64(2), s.RefreshCalls())
}

func TestRequireAuth(t *testing.T) {
	s, ts := newTestServer(t)
	lr := login(t, ts)

	status, raw := call(t, ts, http.MethodGet, "/api/auth/me", lr.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin@example.com", data[wire.User](t, raw).Email)

	status, raw = call(t, ts, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeInvalidToken, errorBody(t, raw).Code)

	s.RevokeAccessTokens()
	status, raw = call(t, ts, http.MethodGet, "/api/auth/me", lr.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeTokenExpired, errorBody(t, raw).Code)

	status, raw = call(t, ts, http.MethodPost, "/api/auth/refresh", "", wire.RefreshRequest{RefreshToken: lr.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodGet, "/api/auth/me", data[wire.TokenPair](t, raw).AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	_, ts := newTestServer(t)
	lr := login(t, ts)

	status, _ := call(t, ts, http.MethodPost, "/api/auth/logout", "", wire.RefreshRequest{RefreshToken: lr.RefreshToken})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, ts, http.MethodPost, "/api/auth/refresh", "", wire.RefreshRequest{RefreshToken: lr.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMedicines(t *testing.T) {
	_, ts := newTestServer(t)
	tok := login(t, ts).AccessToken

	status, raw := call(t, ts, http.MethodGet, "/api/medicines?limit=2&page=1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	var env wire.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, 3, env.Meta.Pagination.Total)
	assert.Equal(t, 2, env.Meta.Pagination.TotalPages)
	assert.Len(t, data[[]wire.Medicine](t, raw), 2)

	status, raw = call(t, ts, http.MethodGet, "/api/medicines?search=amox", tok, nil)
	require.Equal(t, http.StatusOK, status)
	meds := data[[]wire.Medicine](t, raw)
	require.Len(t, meds, 1)
	assert.True(t, meds[0].RequiresPrescription)

	status, _ = call(t, ts, http.MethodGet, "/api/medicines?page=0", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = call(t, ts, http.MethodPost, "/api/medicines", tok, wire.CreateMedicineRequest{Name: "Cetirizine 10mg", Price: 5.5, Stock: 10})
	require.Equal(t, http.StatusCreated, status)
	created := data[wire.Medicine](t, raw)

	status, raw = call(t, ts, http.MethodGet, "/api/medicines/"+created.ID, tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Cetirizine 10mg", data[wire.Medicine](t, raw).Name)

	status, raw = call(t, ts, http.MethodPost, "/api/medicines", tok, wire.CreateMedicineRequest{Name: "cetirizine 10MG", Price: 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, common.CodeConflict, errorBody(t, raw).Code)

	status, raw = call(t, ts, http.MethodPost, "/api/medicines", tok, wire.CreateMedicineRequest{Price: -1})
	assert.Equal(t, http.StatusBadRequest, status)
	b := errorBody(t, raw)
	assert.Equal(t, common.CodeValidationFailed, b.Code)
	assert.Contains(t, b.Details, "name")
	assert.Contains(t, b.Details, "price")

	status, _ = call(t, ts, http.MethodDelete, "/api/medicines/"+created.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, raw = call(t, ts, http.MethodGet, "/api/medicines/"+created.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, common.CodeNotFound, errorBody(t, raw).Code)
}

func TestUnknownRouteUsesFrameworkShape(t *testing.T) {
	_, ts := newTestServer(t)

	status, raw := call(t, ts, http.MethodGet, "/api/prescriptions", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	b := errorBody(t, raw)
	assert.Equal(t, http.StatusNotFound, b.StatusCode)
	assert.Equal(t, "Not Found", b.Error)
	assert.Equal(t, "/api/prescriptions", b.Path)
	assert.Equal(t, http.MethodGet, b.Method)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	login(t, ts)

	status, raw := call(t, ts, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(raw), "pharmalink_mock_requests_total"))
}
