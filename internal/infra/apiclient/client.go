package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/aduba/internal/domain/auth"
	"github.com/yanqian/aduba/internal/domain/events"
	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/session"
	"github.com/yanqian/aduba/internal/domain/settings"
)

// Config points the client at an aduba backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// TokenSource supplies the bearer token of the signed-in user.
type TokenSource interface {
	Token() string
}

// APIError is the error envelope returned by the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Client talks to the backend over HTTP. It acts as the session
// Authenticator and as the Reading Store of a refresh cycle; the user is
// identified by the bearer token, so userID arguments are not sent.
type Client struct {
	http   *resty.Client
	logger *slog.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

// New builds a client for cfg.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: client, logger: logger.With("component", "apiclient")}
}

// UseTokens sets where bearer tokens come from.
func (c *Client) UseTokens(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// SignIn implements session.Authenticator.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	var resp auth.LoginResponse
	_, err := c.do(c.request(ctx, "").
		SetBody(auth.LoginRequest{Email: email, Password: password}).
		SetResult(&resp), http.MethodPost, "/api/v1/auth/login")
	if err != nil {
		return session.Session{}, err
	}
	return session.Session{Email: resp.User.Email, ID: resp.User.ID, Token: resp.Token}, nil
}

// SignUp registers the account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password, deviceID string) (session.Session, error) {
	_, err := c.do(c.request(ctx, "").
		SetBody(auth.RegisterRequest{Email: email, Password: password, DeviceID: deviceID}),
		http.MethodPost, "/api/v1/auth/register")
	if err != nil {
		return session.Session{}, err
	}
	return c.SignIn(ctx, email, password)
}

// SignOut revokes the session token on the server.
func (c *Client) SignOut(ctx context.Context, s session.Session) error {
	_, err := c.do(c.request(ctx, s.Token), http.MethodPost, "/api/v1/auth/logout")
	return err
}

// Profile returns the signed-in account.
func (c *Client) Profile(ctx context.Context) (auth.UserView, error) {
	var view auth.UserView
	_, err := c.do(c.authed(ctx).SetResult(&view), http.MethodGet, "/api/v1/auth/me")
	return view, err
}

// FindLatest implements reading.Repository.
func (c *Client) FindLatest(ctx context.Context, _ string) (reading.Reading, bool, error) {
	var r reading.Reading
	resp, err := c.do(c.authed(ctx).SetResult(&r), http.MethodGet, "/api/v1/readings/latest")
	if err != nil {
		return reading.Reading{}, false, err
	}
	if resp.StatusCode() == http.StatusNoContent {
		return reading.Reading{}, false, nil
	}
	return r, true, nil
}

// Insert implements reading.Repository.
func (c *Client) Insert(ctx context.Context, _ string, r reading.Reading) error {
	_, err := c.do(c.authed(ctx).SetBody(r), http.MethodPost, "/api/v1/readings")
	return err
}

// ListSince implements reading.Repository.
func (c *Client) ListSince(ctx context.Context, _ string, since time.Time, limit int) ([]reading.Reading, error) {
	var body struct {
		Readings []reading.Reading `json:"readings"`
	}
	req := c.authed(ctx).SetResult(&body)
	if !since.IsZero() {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339))
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if _, err := c.do(req, http.MethodGet, "/api/v1/readings"); err != nil {
		return nil, err
	}
	return body.Readings, nil
}

// Stats fetches the chart points for the last days.
func (c *Client) Stats(ctx context.Context, days int) (reading.Stats, error) {
	var stats reading.Stats
	req := c.authed(ctx).SetResult(&stats)
	if days > 0 {
		req.SetQueryParam("days", strconv.Itoa(days))
	}
	_, err := c.do(req, http.MethodGet, "/api/v1/readings/stats")
	return stats, err
}

// Export downloads the spreadsheet of readings recorded since since.
func (c *Client) Export(ctx context.Context, since time.Time) ([]byte, error) {
	req := c.authed(ctx).SetHeader("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if !since.IsZero() {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339))
	}
	resp, err := c.do(req, http.MethodGet, "/api/v1/readings/export")
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Settings fetches the device settings.
func (c *Client) Settings(ctx context.Context) (settings.DeviceSettings, error) {
	var s settings.DeviceSettings
	_, err := c.do(c.authed(ctx).SetResult(&s), http.MethodGet, "/api/v1/settings")
	return s, err
}

// SetNotifications toggles notifications.
func (c *Client) SetNotifications(ctx context.Context, enabled bool) (settings.DeviceSettings, error) {
	var s settings.DeviceSettings
	_, err := c.do(c.authed(ctx).
		SetBody(settings.UpdateRequest{NotificationsEnabled: &enabled}).
		SetResult(&s), http.MethodPut, "/api/v1/settings")
	return s, err
}

// Events lists events, optionally for one YYYY-MM-DD day.
func (c *Client) Events(ctx context.Context, date string) ([]events.Event, error) {
	var body struct {
		Events []events.Event `json:"events"`
	}
	req := c.authed(ctx).SetResult(&body)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	if _, err := c.do(req, http.MethodGet, "/api/v1/events"); err != nil {
		return nil, err
	}
	return body.Events, nil
}

// AddEvent records an event.
func (c *Client) AddEvent(ctx context.Context, in events.CreateRequest) (events.Event, error) {
	var e events.Event
	_, err := c.do(c.authed(ctx).SetBody(in).SetResult(&e), http.MethodPost, "/api/v1/events")
	return e, err
}

func (c *Client) authed(ctx context.Context) *resty.Request {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	token := ""
	if ts != nil {
		token = ts.Token()
	}
	return c.request(ctx, token)
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorEnvelope{})
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) do(req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("api call failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if env, ok := resp.Error().(*errorEnvelope); ok && env != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		c.logger.Debug("api call rejected", "method", method, "path", path, "status", apiErr.Status, "code", apiErr.Code)
		return resp, apiErr
	}
	return resp, nil
}

var (
	_ session.Authenticator = (*Client)(nil)
	_ reading.Repository    = (*Client)(nil)
)
