// Package backendclient talks to the billing API behind the site dashboard:
// subscription plans, the caller's subscriptions, checkout and cancellation.
package backendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/webapp-skeleton/cms/internal/config"
	"go.uber.org/zap"
)

// ErrRequestFailed matches every failed call.
var ErrRequestFailed = errors.New("backendclient: request failed")

// APIError is a non-2xx answer. Detail carries the API's `detail` message
// when the body has one.
type APIError struct {
	Status int
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("backendclient: %d: %s", e.Status, msg)
}

func (e *APIError) Is(target error) bool { return target == ErrRequestFailed }

// TokenSource supplies the identity provider's bearer token for a request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

const maxErrorBody = 64 << 10

type Client struct {
	base   string
	tokens TokenSource
	http   *http.Client
	log    *zap.Logger
}

type Options struct {
	BaseURL    string
	Tokens     TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        *zap.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8000/api/v1"
	}
	return &Client{base: base, tokens: opts.Tokens, http: hc, log: log}
}

// FromConfig uses BACKEND_API_TOKEN as a static token when it is set.
func FromConfig(cfg config.ClientConfig, log *zap.Logger) *Client {
	var tokens TokenSource
	if cfg.BackendToken != "" {
		tokens = StaticToken(cfg.BackendToken)
	}
	return New(Options{BaseURL: cfg.BackendURL, Tokens: tokens, Timeout: cfg.Timeout, Log: log})
}

// Plans lists the available subscription plans.
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var out []Plan
	if err := c.do(ctx, http.MethodGet, "/payments/plans", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscriptions lists the caller's subscriptions, current one first.
func (c *Client) Subscriptions(ctx context.Context) ([]Subscription, error) {
	var out []Subscription
	if err := c.do(ctx, http.MethodGet, "/payments/subscriptions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCheckoutSession starts a hosted checkout for planID and returns the
// URL to redirect the user to.
func (c *Client) CreateCheckoutSession(ctx context.Context, planID int) (string, error) {
	var out struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/payments/create-checkout-session/"+strconv.Itoa(planID), nil, &out); err != nil {
		return "", err
	}
	if out.CheckoutURL == "" {
		return "", fmt.Errorf("%w: response has no checkout_url", ErrRequestFailed)
	}
	return out.CheckoutURL, nil
}

// CancelSubscription cancels at the end of the current period.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID int) (*Subscription, error) {
	q := url.Values{"subscription_id": {strconv.Itoa(subscriptionID)}}
	var out Subscription
	if err := c.do(ctx, http.MethodPost, "/payments/cancel", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invoices lists the caller's invoices.
func (c *Client) Invoices(ctx context.Context) ([]Invoice, error) {
	var out []Invoice
	if err := c.do(ctx, http.MethodGet, "/payments/invoices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out any) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode, Body: string(raw)}
		var detail struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(raw, &detail) == nil {
			if s, ok := detail.Detail.(string); ok {
				apiErr.Detail = s
			}
		}
		c.log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRequestFailed, path, err)
	}
	return nil
}

// authorize adds the bearer token. A failing token source is logged and the
// request goes out unauthenticated.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.log.Warn("could not get identity token, sending request without it", zap.Error(err))
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
