package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"site-onboarding/internal/domain"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

type fakeTokens struct {
	token string
	err   error
	calls int
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, "gpt-mock")
	require.ErrorContains(t, err, "token source")

	_, err = NewClient(&fakeTokens{}, " ")
	require.ErrorContains(t, err, "model")

	c, err := NewClient(&fakeTokens{}, "gpt-mock")
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1", c.baseURL)
}

// ---------------------------------------------------------------------------
// requests
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		&fakeTokens{token: "sk-test"},
		"gpt-mock",
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1670000000,
		"choices": []map[string]any{{
			"index":   0,
			"message": map[string]string{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func respondWith(t *testing.T, content string, inspect func(req chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req chatRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		if inspect != nil {
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(completion(content)))
	}))
}

func TestClient_GenerateDocument(t *testing.T) {
	content := `{
		"business_name":"Trattoria Rosa",
		"tagline":"Pasta like in Rome",
		"description":"Family run since 1984.",
		"sections":[
			{"type":"hero","headline":"Pasta like in Rome","subheadline":"Family run","content":"","items":[]},
			{"type":"services","headline":"What we offer","subheadline":"","content":"","items":[
				{"title":"Catering","description":"For events"},
				{"title":" ","description":"dropped"}
			]},
			{"type":"testimonials","headline":"x","subheadline":"","content":"","items":[]},
			{"type":"hero","headline":"Second hero","subheadline":"","content":"","items":[]}
		]
	}`
	srv := respondWith(t, content, func(req chatRequest) {
		require.Equal(t, "gpt-mock", req.Model)
		require.Nil(t, req.Temperature)
		require.Equal(t, "site_document", req.ResponseFormat.JSONSchema.Name)
		require.True(t, req.ResponseFormat.JSONSchema.Strict)
		require.Contains(t, req.Messages[1].Content, "Business: Trattoria Rosa")
		require.Contains(t, req.Messages[1].Content, "City: Berlin")
	})
	defer srv.Close()

	doc, err := newTestClient(t, srv).GenerateDocument(context.Background(), domain.Identity{BusinessName: "Trattoria Rosa", Category: "Restaurant", City: "Berlin"})
	require.NoError(t, err)
	require.Equal(t, "Pasta like in Rome", doc.Tagline)
	require.Len(t, doc.Sections, 3)
	require.Equal(t, "hero", doc.Sections[0].ID)
	require.Equal(t, []domain.SectionItem{{Title: "Catering", Description: "For events"}}, doc.Sections[1].Items)
	require.Equal(t, "hero-2", doc.Sections[2].ID)
}

func TestClient_GenerateDocument_Validation(t *testing.T) {
	c, err := NewClient(&fakeTokens{token: "sk-test"}, "gpt-mock")
	require.NoError(t, err)
	_, err = c.GenerateDocument(context.Background(), domain.Identity{})
	require.ErrorContains(t, err, "business name")
}

func TestClient_GenerateDocument_NoSections(t *testing.T) {
	srv := respondWith(t, `{"business_name":"","tagline":"","description":"","sections":[]}`, nil)
	defer srv.Close()
	_, err := newTestClient(t, srv).GenerateDocument(context.Background(), domain.Identity{BusinessName: "X"})
	require.ErrorContains(t, err, "no sections")
}

func TestClient_SuggestText(t *testing.T) {
	srv := respondWith(t, `{"text":"  Fresh pasta every day "}`, func(req chatRequest) {
		require.Equal(t, "text_suggestion", req.ResponseFormat.JSONSchema.Name)
		require.NotNil(t, req.Temperature)
		require.Contains(t, req.Messages[0].Content, `"tagline"`)
		require.Equal(t, "Business: Rosa", req.Messages[1].Content)
	})
	defer srv.Close()

	text, err := newTestClient(t, srv).SuggestText(context.Background(), domain.FieldTagline, "Business: Rosa")
	require.NoError(t, err)
	require.Equal(t, "Fresh pasta every day", text)
}

func TestClient_SuggestText_RejectsMalformedContent(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{content: `{"text":""}`, want: "empty"},
		{content: `{"text":"a","extra":true}`, want: "decode text suggestion"},
		{content: `{"text":"a"}{"text":"b"}`, want: "multiple JSON values"},
		{content: `not-json`, want: "decode text suggestion"},
	}
	for _, tc := range cases {
		srv := respondWith(t, tc.content, nil)
		_, err := newTestClient(t, srv).SuggestText(context.Background(), domain.FieldUSP, "")
		srv.Close()
		require.ErrorContains(t, err, tc.want, tc.content)
	}
}

func TestClient_SuggestServices(t *testing.T) {
	srv := respondWith(t, `{"services":[{"title":"Haircut","description":"Wash and cut"},{"title":"","description":""}]}`, func(req chatRequest) {
		require.Equal(t, "service_suggestions", req.ResponseFormat.JSONSchema.Name)
		require.Equal(t, "No details yet.", req.Messages[1].Content)
	})
	defer srv.Close()

	services, err := newTestClient(t, srv).SuggestServices(context.Background(), " ")
	require.NoError(t, err)
	require.Equal(t, []domain.Service{{Title: "Haircut", Description: "Wash and cut"}}, services)
}

func TestClient_SuggestServices_Empty(t *testing.T) {
	srv := respondWith(t, `{"services":[]}`, nil)
	defer srv.Close()
	_, err := newTestClient(t, srv).SuggestServices(context.Background(), "x")
	require.ErrorContains(t, err, "no service suggestions")
}

func TestClient_TokenError(t *testing.T) {
	c, err := NewClient(&fakeTokens{err: errors.New("ssm unavailable")}, "gpt-mock")
	require.NoError(t, err)
	_, err = c.SuggestText(context.Background(), domain.FieldTagline, "x")
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestClient_StatusErrors(t *testing.T) {
	for _, status := range []int{400, 429, 500} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))
		_, err := newTestClient(t, srv).SuggestText(context.Background(), domain.FieldTagline, "x")
		srv.Close()

		require.Error(t, err)
		require.Contains(t, err.Error(), "unexpected status")
		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
	}
}

func TestClient_InvalidEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SuggestServices(context.Background(), "x")
	require.ErrorContains(t, err, "decode response")
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SuggestText(context.Background(), domain.FieldTagline, "x")
	require.ErrorContains(t, err, "no choices")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.SuggestText(context.Background(), domain.FieldTagline, "x")
	require.ErrorContains(t, err, "request failed")
}

func TestClient_NetworkError(t *testing.T) {
	c, err := NewClient(&fakeTokens{token: "sk-test"}, "gpt-mock", WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)
	c.httpClient = &http.Client{Timeout: 100 * time.Millisecond}

	_, err = c.SuggestServices(context.Background(), "x")
	require.ErrorContains(t, err, "request failed")
}
