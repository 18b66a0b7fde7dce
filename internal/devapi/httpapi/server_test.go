package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/huntlog/internal/client/api"
	"github.com/dmitrijs2005/huntlog/internal/common"
	"github.com/dmitrijs2005/huntlog/internal/devapi/config"
	"github.com/dmitrijs2005/huntlog/internal/devapi/users"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

type mailbox struct {
	mu     sync.Mutex
	tokens map[users.TokenKind]string
}

func (m *mailbox) Send(_ context.Context, kind users.TokenKind, _ string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[kind] = token
	return nil
}

func (m *mailbox) get(kind users.TokenKind) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[kind]
}

func newTestServer(t *testing.T) (*httptest.Server, *mailbox) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	mb := &mailbox{tokens: map[users.TokenKind]string{}}
	svc := users.NewService(users.NewMemoryRepository(), users.NewMemoryTokenRepository(), mb, logging.Discard(), cfg)
	srv := httptest.NewServer(NewServer("", svc, logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	return srv, mb
}

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, in, out any) int {
	t.Helper()
	var body bytes.Buffer
	if in != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(in))
	}
	req, err := http.NewRequest(method, srv.URL+BasePath+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerToken(token))
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func registerAndLogin(t *testing.T, srv *httptest.Server) api.LoginResponse {
	t.Helper()
	var reg api.RegisterResponse
	code := call(t, srv, http.MethodPost, api.PathRegister, "", api.RegisterRequest{
		Email: "hunter@example.com", Username: "hunter", Password: "password1",
	}, &reg)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, reg.User)
	assert.Equal(t, "hunter", reg.User.Username)

	var login api.LoginResponse
	code = call(t, srv, http.MethodPost, api.PathLogin, "", api.LoginRequest{Email: "hunter@example.com", Password: "password1"}, &login)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)
	return login
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv)

	var e errorBody
	code := call(t, srv, http.MethodPost, api.PathRegister, "", api.RegisterRequest{
		Email: "hunter@example.com", Username: "again", Password: "password1",
	}, &e)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "email_taken", e.Code)

	e = errorBody{}
	code = call(t, srv, http.MethodPost, api.PathRegister, "", api.RegisterRequest{Email: "bad", Username: "x", Password: "1"}, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_error", e.Code)
	assert.Contains(t, e.Details, "email")
	assert.Contains(t, e.Details, "username")
	assert.Contains(t, e.Details, "password")
}

func TestBadBody(t *testing.T) {
	srv, _ := newTestServer(t)

	var e errorBody
	code := call(t, srv, http.MethodPost, api.PathLogin, "", map[string]any{"email": "a@b.c", "extra": 1}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_json", e.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv)

	var e errorBody
	code := call(t, srv, http.MethodPost, api.PathLogin, "", api.LoginRequest{Email: "hunter@example.com", Password: "nope-nope"}, &e)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_credentials", e.Code)
}

func TestProtectedEndpoints(t *testing.T) {
	srv, mb := newTestServer(t)
	login := registerAndLogin(t, srv)

	code := call(t, srv, http.MethodGet, api.PathMe, "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code = call(t, srv, http.MethodGet, api.PathMe, "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	var me api.User
	code = call(t, srv, http.MethodGet, api.PathMe, login.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hunter@example.com", me.Email)
	assert.False(t, me.EmailVerified)

	var msg api.MessageResponse
	code = call(t, srv, http.MethodPost, api.PathResendVerification, login.AccessToken, nil, &msg)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, msg.Message)

	code = call(t, srv, http.MethodPost, api.PathVerifyEmail, "", api.VerifyEmailRequest{Token: mb.get(users.TokenVerifyEmail)}, &msg)
	require.Equal(t, http.StatusOK, code)

	code = call(t, srv, http.MethodGet, api.PathMe, login.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, me.EmailVerified)

	var e errorBody
	code = call(t, srv, http.MethodPost, api.PathResendVerification, login.AccessToken, nil, &e)
	assert.Equal(t, http.StatusConflict, code)

	e = errorBody{}
	code = call(t, srv, http.MethodPost, api.PathChangePassword, login.AccessToken, api.ChangePasswordRequest{
		CurrentPassword: "wrong-one", NewPassword: "newpassword",
	}, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, e.Details, "currentPassword")

	code = call(t, srv, http.MethodPost, api.PathChangePassword, login.AccessToken, api.ChangePasswordRequest{
		CurrentPassword: "password1", NewPassword: "newpassword",
	}, &msg)
	assert.Equal(t, http.StatusOK, code)
}

func TestRefreshAndLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	login := registerAndLogin(t, srv)

	var refreshed api.RefreshTokenResponse
	code := call(t, srv, http.MethodPost, api.PathRefresh, "", api.RefreshTokenRequest{RefreshToken: login.RefreshToken}, &refreshed)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, refreshed.AccessToken)

	code = call(t, srv, http.MethodGet, api.PathMe, refreshed.AccessToken, nil, &api.User{})
	assert.Equal(t, http.StatusOK, code)

	code = call(t, srv, http.MethodPost, api.PathLogout, refreshed.AccessToken, nil, nil)
	assert.Equal(t, http.StatusNoContent, code)

	var e errorBody
	code = call(t, srv, http.MethodPost, api.PathRefresh, "", api.RefreshTokenRequest{RefreshToken: login.RefreshToken}, &e)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_token", e.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	srv, mb := newTestServer(t)
	registerAndLogin(t, srv)

	var msg api.MessageResponse
	code := call(t, srv, http.MethodPost, api.PathForgotPassword, "", api.ForgotPasswordRequest{Email: "hunter@example.com"}, &msg)
	require.Equal(t, http.StatusOK, code)

	var e errorBody
	code = call(t, srv, http.MethodPost, api.PathResetPassword, "", api.ResetPasswordRequest{Token: "bogus", NewPassword: "newpassword"}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_token", e.Code)

	code = call(t, srv, http.MethodPost, api.PathResetPassword, "", api.ResetPasswordRequest{
		Token: mb.get(users.TokenPasswordReset), NewPassword: "newpassword",
	}, &msg)
	require.Equal(t, http.StatusOK, code)

	code = call(t, srv, http.MethodPost, api.PathLogin, "", api.LoginRequest{Email: "hunter@example.com", Password: "newpassword"}, &api.LoginResponse{})
	assert.Equal(t, http.StatusOK, code)
}
