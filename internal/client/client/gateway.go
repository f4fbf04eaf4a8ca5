package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/draped/internal/client/metrics"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/common"
	"github.com/dmitrijs2005/draped/internal/logging"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultUploadTimeout  = 60 * time.Second

	refreshPath = common.APIPrefix + "/auth/refresh"

	// maxResponseBytes caps JSON response bodies. Images never come through
	// the gateway (see HTTPClient.Download).
	maxResponseBytes = 4 << 20
)

// SessionStore is the part of the session the gateway reads and mutates.
// session.Store satisfies it.
type SessionStore interface {
	Read() models.Session
	SetTokens(ctx context.Context, access, refresh string) error
	Logout(ctx context.Context) error
}

// Request describes one API call. Body is kept as bytes so the call can be
// re-issued after a token refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	// Timeout overrides the gateway default when non-zero.
	Timeout time.Duration
	// NoAuth sends the request without a bearer token and never refreshes
	// on 401 (login, registration, refresh itself).
	NoAuth bool
}

// NewJSONRequest encodes v as the request body.
func NewJSONRequest(method, path string, v any) (*Request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &Request{Method: method, Path: path, Body: b, ContentType: "application/json"}, nil
}

type response struct {
	status int
	body   []byte
}

// Gateway sends every API request. It attaches the current access token and
// recovers from one expired token per call: on 401 it refreshes the token
// pair once and re-issues the request once. A failed refresh logs the session
// out.
//
// Concurrent refreshes share one in-flight call to the refresh endpoint.
type Gateway struct {
	origin     string
	httpClient *http.Client
	session    SessionStore
	log        logging.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration

	refreshGroup singleflight.Group
}

// Option configures a Gateway or an HTTPClient.
type Option func(*options)

type options struct {
	httpClient    *http.Client
	log           logging.Logger
	metrics       *metrics.Metrics
	timeout       time.Duration
	uploadTimeout time.Duration
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUploadTimeout sets the timeout of job creation uploads.
func WithUploadTimeout(d time.Duration) Option {
	return func(o *options) { o.uploadTimeout = d }
}

func buildOptions(opts []Option) options {
	o := options{
		timeout:       DefaultRequestTimeout,
		uploadTimeout: DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	return o
}

func NewGateway(origin string, session SessionStore, opts ...Option) *Gateway {
	o := buildOptions(opts)
	return &Gateway{
		origin:     strings.TrimRight(origin, "/"),
		httpClient: o.httpClient,
		session:    session,
		log:        o.log,
		metrics:    o.metrics,
		timeout:    o.timeout,
	}
}

// Origin is the API origin requests are sent to, without a trailing slash.
func (g *Gateway) Origin() string {
	return g.origin
}

// Do sends r and decodes a 2xx JSON body into out (out may be nil).
// Non-2xx responses come back as *APIError.
func (g *Gateway) Do(ctx context.Context, r *Request, out any) error {
	var sent string
	if !r.NoAuth {
		sent = g.session.Read().AccessToken
		g.logIfExpired(ctx, sent)
	}

	resp, err := g.send(ctx, r, sent)
	if err != nil {
		return err
	}
	if resp.status != http.StatusUnauthorized || r.NoAuth {
		return decode(resp, out)
	}

	// The retry below is the only one this call gets.
	access, err := g.refresh(ctx, sent)
	if err != nil {
		g.log.Warn(ctx, "token refresh failed", "path", r.Path, "error", err)
		return decode(resp, out)
	}

	retried, err := g.send(ctx, r, access)
	if err != nil {
		return err
	}
	return decode(retried, out)
}

// refresh returns an access token to retry with. If the session already
// holds a different token than the one the request carried, someone else
// refreshed in the meantime and that token is reused.
func (g *Gateway) refresh(ctx context.Context, stale string) (string, error) {
	if cur := g.session.Read().AccessToken; cur != "" && cur != stale {
		g.metrics.ObserveRefresh(metrics.RefreshReused)
		return cur, nil
	}

	ch := g.refreshGroup.DoChan("refresh", func() (any, error) {
		return g.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			g.metrics.ObserveRefresh(metrics.RefreshReused)
		}
		return res.Val.(string), nil
	}
}

func (g *Gateway) doRefresh(ctx context.Context) (string, error) {
	refreshToken := g.session.Read().RefreshToken
	if refreshToken == "" {
		g.metrics.ObserveRefresh(metrics.RefreshFailure)
		g.forceLogout(ctx, ErrNoRefreshToken)
		return "", ErrNoRefreshToken
	}

	pair, err := g.requestRefresh(ctx, refreshToken)
	if err != nil {
		g.metrics.ObserveRefresh(metrics.RefreshFailure)
		g.forceLogout(ctx, err)
		return "", fmt.Errorf("refresh token: %w", err)
	}

	// The user may have logged out (or in again) while the refresh was in
	// flight; the new pair belongs to a session that no longer exists.
	if cur := g.session.Read(); !cur.Authenticated || cur.RefreshToken != refreshToken {
		g.metrics.ObserveRefresh(metrics.RefreshFailure)
		g.log.Info(ctx, "session changed during token refresh, discarding new tokens")
		return "", fmt.Errorf("store refreshed tokens: %w", common.ErrNoSession)
	}

	if err := g.session.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		g.metrics.ObserveRefresh(metrics.RefreshFailure)
		return "", fmt.Errorf("store refreshed tokens: %w", err)
	}

	g.metrics.ObserveRefresh(metrics.RefreshSuccess)
	g.log.Info(ctx, "access token refreshed")
	return pair.AccessToken, nil
}

func (g *Gateway) requestRefresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	req, err := NewJSONRequest(http.MethodPost, refreshPath, models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	req.NoAuth = true

	var pair models.TokenPair
	if err := g.Do(ctx, req, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, errors.New("refresh response without tokens")
	}
	return &pair, nil
}

func (g *Gateway) forceLogout(ctx context.Context, cause error) {
	g.log.Warn(ctx, "session ended, logging out", "cause", cause)
	if err := g.session.Logout(ctx); err != nil {
		g.log.Error(ctx, "logout after failed refresh", "error", err)
	}
}

func (g *Gateway) logIfExpired(ctx context.Context, access string) {
	if access == "" {
		return
	}
	if exp, err := TokenExpiry(access); err == nil && time.Now().After(exp) {
		g.log.Debug(ctx, "access token already expired, expecting refresh", "expired_at", exp)
	}
}

// send performs one HTTP round trip and reads the whole body under the
// request timeout.
func (g *Gateway) send(ctx context.Context, r *Request, access string) (*response, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = g.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := g.origin + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if access != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+access)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.ObserveRequest(r.Method, 0)
		g.log.Debug(ctx, "api request failed", "request_id", requestID, "method", r.Method, "path", r.Path, "error", err)
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		g.metrics.ObserveRequest(r.Method, 0)
		return nil, mapTransportError(err)
	}
	if len(b) > maxResponseBytes {
		g.metrics.ObserveRequest(r.Method, resp.StatusCode)
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrResponseTooLarge, maxResponseBytes)
	}

	g.metrics.ObserveRequest(r.Method, resp.StatusCode)
	g.log.Debug(ctx, "api request",
		"request_id", requestID,
		"method", r.Method,
		"path", r.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)
	return &response{status: resp.StatusCode, body: b}, nil
}

func mapTransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request cancelled: %w", err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func decode(resp *response, out any) error {
	if resp.status < 200 || resp.status >= 300 {
		return newAPIError(resp.status, resp.body)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
