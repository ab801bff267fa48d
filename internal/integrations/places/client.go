package places

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

// ErrNotFound reports that no business matches the link or query.
var ErrNotFound = errors.New("places: business not found")

const fieldMask = "places.displayName,places.formattedAddress,places.nationalPhoneNumber,places.primaryTypeDisplayName"

// shortLinkHosts redirect to a full maps URL.
var shortLinkHosts = map[string]bool{
	"maps.app.goo.gl": true,
	"goo.gl":          true,
	"g.co":            true,
}

// TokenSource yields the API key.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type searchRequest struct {
	TextQuery      string `json:"textQuery"`
	LanguageCode   string `json:"languageCode,omitempty"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

type localizedText struct {
	Text string `json:"text"`
}

type place struct {
	DisplayName            localizedText `json:"displayName"`
	FormattedAddress       string        `json:"formattedAddress"`
	NationalPhoneNumber    string        `json:"nationalPhoneNumber"`
	PrimaryTypeDisplayName localizedText `json:"primaryTypeDisplayName"`
}

type searchResponse struct {
	Places []place `json:"places"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("places: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client looks up business facts through the Places text search.
type Client struct {
	baseURL      string
	languageCode string
	httpClient   *http.Client
	tokens       TokenSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLanguageCode(code string) Option {
	return func(c *Client) {
		c.languageCode = strings.TrimSpace(code)
	}
}

// NewClient creates a Client using the API key from tokens.
func NewClient(tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("places: token source must not be nil")
	}
	c := &Client{
		baseURL:      "https://places.googleapis.com/v1",
		languageCode: "de",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokens:       tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup resolves a maps share link or a free-text query to directory facts.
func (c *Client) Lookup(ctx context.Context, linkOrQuery string) (domain.DirectoryFacts, error) {
	input := strings.TrimSpace(linkOrQuery)
	if input == "" {
		return domain.DirectoryFacts{}, errors.New("places: link or query must not be empty")
	}

	query := input
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if shortLinkHosts[strings.ToLower(u.Host)] {
			resolved, err := c.resolveShortLink(ctx, input)
			if err != nil {
				return domain.DirectoryFacts{}, err
			}
			u = resolved
		}
		query = QueryFromMapsURL(u)
		if query == "" {
			return domain.DirectoryFacts{}, ErrNotFound
		}
	}

	p, err := c.search(ctx, query)
	if err != nil {
		return domain.DirectoryFacts{}, err
	}
	return domain.DirectoryFacts{
		BusinessName: strings.TrimSpace(p.DisplayName.Text),
		Address:      strings.TrimSpace(p.FormattedAddress),
		Phone:        strings.TrimSpace(p.NationalPhoneNumber),
		Category:     strings.TrimSpace(p.PrimaryTypeDisplayName.Text),
	}, nil
}

// resolveShortLink follows one redirect hop and returns its target.
func (c *Client) resolveShortLink(ctx context.Context, link string) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("places: create redirect request: %w", err)
	}
	client := *c.resolvedHTTPClient()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places: resolve short link: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 300 || res.StatusCode >= 400 {
		return nil, ErrNotFound
	}
	loc, err := res.Location()
	if err != nil {
		return nil, ErrNotFound
	}
	return loc, nil
}

// QueryFromMapsURL extracts the business search text from a maps URL, or "" if the
// URL carries none.
func QueryFromMapsURL(u *url.URL) string {
	for _, key := range []string{"q", "query"} {
		if v := strings.TrimSpace(u.Query().Get(key)); v != "" {
			return v
		}
	}
	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	for i, seg := range segments {
		if seg != "place" || i+1 >= len(segments) {
			continue
		}
		name, err := url.PathUnescape(segments[i+1])
		if err != nil {
			return ""
		}
		return strings.TrimSpace(strings.ReplaceAll(name, "+", " "))
	}
	return ""
}

func (c *Client) search(ctx context.Context, query string) (place, error) {
	apiKey, err := c.tokens.Token(ctx)
	if err != nil {
		return place{}, fmt.Errorf("places: resolve api key: %w", err)
	}
	body, err := json.Marshal(searchRequest{TextQuery: query, LanguageCode: c.languageCode, MaxResultCount: 1})
	if err != nil {
		return place{}, fmt.Errorf("places: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/places:searchText"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return place{}, fmt.Errorf("places: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return place{}, fmt.Errorf("places: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return place{}, &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return place{}, fmt.Errorf("places: decode response: %w", err)
	}
	if len(payload.Places) == 0 || strings.TrimSpace(payload.Places[0].DisplayName.Text) == "" {
		return place{}, ErrNotFound
	}
	return payload.Places[0], nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
