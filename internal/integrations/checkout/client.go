package checkout

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
	"time"

	"site-onboarding/internal/domain"
)

// TokenSource yields the API token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Order is what the customer is about to pay for.
type Order struct {
	WebsiteID     string
	AddOns        []domain.AddOn
	SubPages      int
	MonthlyAmount int64
}

type sessionRequest struct {
	WebsiteID     string   `json:"websiteId"`
	AddOns        []string `json:"addOns"`
	SubPages      int      `json:"subPages"`
	MonthlyAmount int64    `json:"monthlyAmountCents"`
}

type sessionResponse struct {
	URL string `json:"url"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("checkout: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client creates checkout sessions with the billing backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the billing API at baseURL.
func NewClient(tokens TokenSource, baseURL string, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("checkout: token source must not be nil")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("checkout: base url must be absolute")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateSession returns the URL the customer is redirected to for payment.
func (c *Client) CreateSession(ctx context.Context, order Order) (string, error) {
	if strings.TrimSpace(order.WebsiteID) == "" {
		return "", errors.New("checkout: website id must not be empty")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("checkout: resolve token: %w", err)
	}

	addOns := make([]string, len(order.AddOns))
	for i, a := range order.AddOns {
		addOns[i] = string(a)
	}
	body, err := json.Marshal(sessionRequest{
		WebsiteID:     order.WebsiteID,
		AddOns:        addOns,
		SubPages:      order.SubPages,
		MonthlyAmount: order.MonthlyAmount,
	})
	if err != nil {
		return "", fmt.Errorf("checkout: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/checkout-sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("checkout: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "checkout-"+order.WebsiteID)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	var payload sessionResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return "", fmt.Errorf("checkout: decode response: %w", err)
	}
	redirect, err := url.Parse(strings.TrimSpace(payload.URL))
	if err != nil || redirect.Scheme != "https" {
		return "", errors.New("checkout: response has no https redirect url")
	}
	return redirect.String(), nil
}
