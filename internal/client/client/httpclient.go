package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/huntlog/internal/common"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

// RefreshPath is the token refresh endpoint, relative to the base URL.
const RefreshPath = "/auth/refresh"

// TokenStore is the part of the session the HTTP client reads and mutates.
// *session.Store satisfies it.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	BeginRefresh()
	EndRefresh()
}

// HTTPClient issues JSON requests against the backend. It attaches the
// current access token and, on a 401, performs one silent refresh and
// resubmits the request once.
type HTTPClient struct {
	baseURL      string
	http         *http.Client
	store        TokenStore
	logger       logging.Logger
	onExpired    func(ctx context.Context)
	singleFlight bool
	group        singleflight.Group
	newRequestID func() string
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// WithTimeout bounds every request, including the refresh call.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// WithSessionExpiredHook registers fn to run after the session has been
// torn down because a 401 could not be resolved. The view layer uses it to
// navigate to the login entry point.
func WithSessionExpiredHook(fn func(ctx context.Context)) Option {
	return func(c *HTTPClient) { c.onExpired = fn }
}

// WithSingleFlightRefresh makes concurrent 401s share one refresh call.
// Each request is still resubmitted at most once.
func WithSingleFlightRefresh(enabled bool) Option {
	return func(c *HTTPClient) { c.singleFlight = enabled }
}

func NewHTTPClient(baseURL string, store TokenStore, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = common.DefaultAPIBaseURL
	}
	c := &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{},
		store:        store,
		logger:       logging.Discard(),
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// request is one logical call. retried flips after the single resubmission
// so a request can never go through the refresh cycle twice.
type request struct {
	method    string
	path      string
	body      []byte
	requestID string
	retried   bool
}

// Do sends in (JSON-encoded, may be nil) and decodes a 2xx body into out
// (may be nil). Non-2xx responses come back as *APIError; network failures
// wrap ErrUnavailable.
func (c *HTTPClient) Do(ctx context.Context, method, path string, in, out any) error {
	req := &request{method: method, path: path, requestID: c.newRequestID()}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.body = b
	}

	token := c.store.AccessToken()
	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && !req.retried {
		unauthorized := readAPIError(resp)
		return c.refreshAndRetry(ctx, req, token, unauthorized, out)
	}
	return decodeResponse(resp, out)
}

func (c *HTTPClient) refreshAndRetry(ctx context.Context, req *request, usedToken string, unauthorized *APIError, out any) error {
	log := c.logger.With("request_id", req.requestID, "path", req.path)

	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		log.Info(ctx, "unauthorized and no refresh token stored")
		c.expire(ctx)
		return fmt.Errorf("%w: %w", ErrAuthExpired, unauthorized)
	}

	newToken, err := c.obtainAccessToken(ctx, refreshToken, usedToken)
	if err != nil {
		log.Warn(ctx, "token refresh failed, ending session", "error", err)
		c.expire(ctx)
		return fmt.Errorf("%w: %w", ErrAuthExpired, unauthorized)
	}

	req.retried = true
	log.Debug(ctx, "access token refreshed, resubmitting request")

	resp, err := c.send(ctx, req, newToken)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// obtainAccessToken refreshes the access token and stores it in the
// session. With single-flight enabled, a token already replaced by a
// concurrent refresh is reused instead of refreshing again.
func (c *HTTPClient) obtainAccessToken(ctx context.Context, refreshToken, usedToken string) (string, error) {
	if !c.singleFlight {
		return c.refreshAndStore(ctx, refreshToken)
	}

	if current := c.store.AccessToken(); current != "" && current != usedToken {
		return current, nil
	}
	// shared by every waiter, so one caller's cancellation must not fail the rest
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do("refresh:"+refreshToken, func() (any, error) {
		return c.refreshAndStore(shared, refreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *HTTPClient) refreshAndStore(ctx context.Context, refreshToken string) (string, error) {
	c.store.BeginRefresh()
	defer c.store.EndRefresh()

	token, err := c.refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := c.store.SetAccessToken(ctx, token); err != nil {
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	return token, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// refresh calls the refresh endpoint directly, bypassing Do so that a
// failing refresh can never trigger another refresh.
func (c *HTTPClient) refresh(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RefreshPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(common.RequestIDHeaderName, c.newRequestID())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out refreshResponse
	if err := decodeResponse(resp, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("refresh response has no access_token")
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) expire(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error(ctx, "failed to clear session storage", "error", err)
	}
	if c.onExpired != nil {
		c.onExpired(ctx)
	}
}

func (c *HTTPClient) send(ctx context.Context, req *request, token string) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(common.RequestIDHeaderName, req.requestID)
	if token != "" {
		httpReq.Header.Set(common.AuthorizationHeaderName, common.BearerToken(token))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
