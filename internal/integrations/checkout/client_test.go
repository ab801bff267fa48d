package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"site-onboarding/internal/domain"
)

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) Token(context.Context) (string, error) {
	return f.token, f.err
}

func TestCreateSession_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/checkout-sessions", r.URL.Path)
		require.Equal(t, "Bearer co-token", r.Header.Get("Authorization"))
		require.Equal(t, "checkout-site-1", r.Header.Get("Idempotency-Key"))
		var req sessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, sessionRequest{WebsiteID: "site-1", AddOns: []string{"contactForm", "menu"}, SubPages: 2, MonthlyAmount: 6270}, req)
		_, _ = w.Write([]byte(`{"url":"https://pay.example.com/s/abc"}`))
	}))
	defer srv.Close()

	c, err := NewClient(fakeTokens{token: "co-token"}, srv.URL+"/api/")
	require.NoError(t, err)
	redirect, err := c.CreateSession(context.Background(), Order{
		WebsiteID:     "site-1",
		AddOns:        []domain.AddOn{domain.AddOnContactForm, domain.AddOnMenu},
		SubPages:      2,
		MonthlyAmount: 6270,
	})
	require.NoError(t, err)
	require.Equal(t, "https://pay.example.com/s/abc", redirect)
}

func TestCreateSession_BadRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"javascript:alert(1)"}`))
	}))
	defer srv.Close()

	c, err := NewClient(fakeTokens{token: "t"}, srv.URL)
	require.NoError(t, err)
	_, err = c.CreateSession(context.Background(), Order{WebsiteID: "site-1"})
	require.ErrorContains(t, err, "no https redirect")
}

func TestCreateSession_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	c, err := NewClient(fakeTokens{token: "t"}, srv.URL)
	require.NoError(t, err)
	_, err = c.CreateSession(context.Background(), Order{WebsiteID: "site-1"})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.HTTPStatusCode())
	require.Contains(t, err.Error(), "upstream down")
}

func TestCreateSession_Validation(t *testing.T) {
	_, err := NewClient(nil, "https://billing.example.com")
	require.ErrorContains(t, err, "token source")
	_, err = NewClient(fakeTokens{}, "billing")
	require.ErrorContains(t, err, "absolute")

	c, err := NewClient(fakeTokens{err: errors.New("ssm unavailable")}, "https://billing.example.com")
	require.NoError(t, err)
	_, err = c.CreateSession(context.Background(), Order{})
	require.ErrorContains(t, err, "website id")
	_, err = c.CreateSession(context.Background(), Order{WebsiteID: "site-1"})
	require.ErrorContains(t, err, "ssm unavailable")
}
