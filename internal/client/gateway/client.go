// Package gateway is the single HTTP client of the expedientes service.
//
// Every call carries the session's bearer token when there is one. Responses
// are normalized so resource clients only ever see the inner payload, and
// failures are turned into one typed *Error after the status-specific side
// effects have run exactly once: session expiry on 401, notifications on
// 403, 429 and 5xx.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginPath is where the client navigates after the session expires.
const LoginPath = "/login"

const (
	defaultRedirectDelay = 1500 * time.Millisecond
	maxBodySize          = 16 << 20
)

// Session is the part of the session store the gateway needs.
type Session interface {
	Token() string
	Logout() bool
}

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:3000/api".
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Session supplies the token and is logged out on 401. Required.
	Session Session

	// Notifier receives user-facing notifications. Defaults to notify.Nop.
	Notifier notify.Notifier

	// Navigator is asked to go to LoginPath after a session expires.
	Navigator Navigator

	// RedirectDelay lets the expiry notification render before navigating.
	RedirectDelay time.Duration

	Logger *zap.Logger

	// Now and AfterFunc are injectable for tests.
	Now       func() time.Time
	AfterFunc func(time.Duration, func())
}

// Client issues requests against the expedientes service.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	session       Session
	notifier      notify.Notifier
	navigator     Navigator
	redirectDelay time.Duration
	log           *zap.Logger
	now           func() time.Time
	afterFunc     func(time.Duration, func())

	// expiring is set between a 401 and the redirect it scheduled, so
	// concurrent 401s coalesce into one logout and one redirect.
	expiring atomic.Bool
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: base URL must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.Session == nil {
		return nil, errors.New("gateway: session is required")
	}

	c := &Client{
		baseURL:       base,
		httpClient:    cfg.HTTPClient,
		session:       cfg.Session,
		notifier:      cfg.Notifier,
		navigator:     cfg.Navigator,
		redirectDelay: cfg.RedirectDelay,
		log:           cfg.Logger,
		now:           cfg.Now,
		afterFunc:     cfg.AfterFunc,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.notifier == nil {
		c.notifier = notify.Nop{}
	}
	if c.navigator == nil {
		c.navigator = NavigatorFunc(func(string) {})
	}
	if c.redirectDelay <= 0 {
		c.redirectDelay = defaultRedirectDelay
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.afterFunc == nil {
		c.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return c, nil
}

// Now is the clock shared with collaborators such as the exporter.
func (c *Client) Now() time.Time { return c.now() }

// Notifier returns the notifier failures are reported to.
func (c *Client) Notifier() notify.Notifier { return c.notifier }

func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do executes a JSON call. On success the normalized payload is decoded
// into out (when out is non-nil). On failure it returns an *Error, or the
// context's error if the caller abandoned the call.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	resp, requestID, err := c.send(ctx, method, path, params, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.transportError(method, path, requestID, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.interpret(resp.StatusCode, resp.Header, raw, requestID, sentToken(resp))
	}

	payload, f := normalize(raw)
	if f != nil {
		// success:false on a 2xx status.
		return &Error{
			Kind:      KindRequest,
			Status:    resp.StatusCode,
			Message:   fallback(f.message, resp.StatusCode),
			Details:   f.details,
			RequestID: requestID,
		}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(payload), out); err != nil {
		return fmt.Errorf("gateway: decoding %s %s: %w", method, path, err)
	}
	return nil
}

// Download executes an authenticated request without any response
// interpretation beyond the 401 session expiry, for binary payloads. The
// caller owns the returned response body.
func (c *Client) Download(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	resp, requestID, err := c.send(ctx, http.MethodGet, path, params, nil, "*/*")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		return nil, c.interpret(resp.StatusCode, resp.Header, raw, requestID, sentToken(resp))
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, params url.Values, body any, accept string) (*http.Response, string, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("gateway: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, "", fmt.Errorf("gateway: creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned by the caller: nothing to report.
			return nil, requestID, ctx.Err()
		}
		return nil, requestID, c.transportError(method, path, requestID, err)
	}

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
	)
	return resp, requestID, nil
}

func (c *Client) transportError(method, path, requestID string, err error) error {
	c.log.Warn("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
	c.notifier.Notify(notify.Notification{
		Title:       "Error de conexión",
		Description: "No se pudo contactar al servidor. Verifica tu conexión.",
		Variant:     notify.Destructive,
		At:          c.now(),
	})
	return &Error{
		Kind:      KindTransport,
		Message:   "no se pudo contactar al servidor",
		RequestID: requestID,
		Err:       err,
	}
}

// Interpret turns a non-2xx response into an *Error and performs the
// status-specific side effects. It is exported for the export flow, which
// reads binary responses itself but shares this taxonomy.
func (c *Client) Interpret(status int, header http.Header, body []byte, requestID string) error {
	return c.interpret(status, header, body, requestID, true)
}

// interpret is Interpret for a call that may have gone out without a
// token. Unlike every other status, 401 handling is conditional here on
// purpose: a 401 on a call that carried no token (a failed login) has no
// session to expire, so it skips the logout, the "Sesión expirada"
// notification and the login redirect, and only returns KindAuthExpired
// with the service's message.
func (c *Client) interpret(status int, header http.Header, body []byte, requestID string, authenticated bool) error {
	f := extractError(body)
	e := &Error{
		Status:    status,
		Message:   fallback(f.message, status),
		Details:   f.details,
		RequestID: requestID,
	}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthExpired
		if authenticated {
			c.expire()
		}
	case status == http.StatusForbidden:
		e.Kind = KindPermissionDenied
		c.notifier.Notify(notify.Notification{
			Title:       "Acceso denegado",
			Description: "No tienes permisos para realizar esta acción.",
			Variant:     notify.Destructive,
			At:          c.now(),
		})
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RateLimit = ParseRateLimit(header)
		e.Message = RateLimitMessage(f.message, e.RateLimit, c.now())
		c.notifier.Notify(notify.Notification{
			Title:       "Límite de solicitudes alcanzado",
			Description: e.Message,
			Variant:     notify.Destructive,
			At:          c.now(),
		})
	case status >= 500:
		e.Kind = KindServer
		c.notifier.Notify(notify.Notification{
			Title:       "Error del servidor",
			Description: "Ocurrió un error en el servidor. Inténtalo más tarde.",
			Variant:     notify.Destructive,
			At:          c.now(),
		})
	default:
		e.Kind = KindRequest
	}

	c.log.Info("api error",
		zap.Int("status", status),
		zap.Stringer("kind", e.Kind),
		zap.String("message", e.Message),
		zap.String("request_id", requestID),
	)
	return e
}

// expire logs the session out, tells the user and schedules the redirect
// to the login page. Concurrent 401s arriving before the redirect fires
// are absorbed.
func (c *Client) expire() {
	if !c.expiring.CompareAndSwap(false, true) {
		return
	}
	c.session.Logout()
	c.notifier.Notify(notify.Notification{
		Title:       "Sesión expirada",
		Description: "Tu sesión expiró. Por favor, inicia sesión de nuevo.",
		Variant:     notify.Destructive,
		At:          c.now(),
	})
	c.afterFunc(c.redirectDelay, func() {
		c.expiring.Store(false)
		c.navigator.Navigate(LoginPath)
	})
}

func sentToken(resp *http.Response) bool {
	return resp.Request != nil && resp.Request.Header.Get("Authorization") != ""
}

func fallback(message string, status int) string {
	if message != "" {
		return message
	}
	switch {
	case status == http.StatusBadRequest:
		return "Solicitud inválida"
	case status == http.StatusUnauthorized:
		return "Sesión expirada"
	case status == http.StatusForbidden:
		return "No tienes permisos para realizar esta acción"
	case status == http.StatusNotFound:
		return "Recurso no encontrado"
	case status == http.StatusConflict:
		return "Conflicto con el estado actual del recurso"
	case status == http.StatusTooManyRequests:
		return ""
	case status >= 500:
		return "Error del servidor"
	default:
		return "Error inesperado"
	}
}
