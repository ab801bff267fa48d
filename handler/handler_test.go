package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"site-onboarding/internal/domain"
	"site-onboarding/internal/metrics"
	"site-onboarding/internal/onboarding"
	"site-onboarding/internal/usecase"
)

type stubUseCase struct {
	err error

	startIn      usecase.StartInput
	submitIn     usecase.SubmitInput
	reopenIn     usecase.ReopenInput
	amendIn      usecase.AmendInput
	visibilityIn usecase.SectionVisibilityInput
	uploadIn     usecase.UploadInput
	websiteID    string
	calls        []string
}

func (s *stubUseCase) view() usecase.View {
	return usecase.View{WebsiteID: "site-1", Version: 2, Step: domain.StepColorScheme}
}

func (s *stubUseCase) Start(_ context.Context, in usecase.StartInput) (usecase.StartOutput, error) {
	s.calls = append(s.calls, "start")
	s.startIn = in
	return usecase.StartOutput{View: s.view()}, s.err
}

func (s *stubUseCase) Submit(_ context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error) {
	s.calls = append(s.calls, "submit")
	s.submitIn = in
	return usecase.SubmitOutput{View: s.view(), Outcome: onboarding.Outcome{Kind: onboarding.OutcomeAdvanced, Step: domain.StepColorScheme}}, s.err
}

func (s *stubUseCase) Reopen(_ context.Context, in usecase.ReopenInput) (usecase.SubmitOutput, error) {
	s.calls = append(s.calls, "reopen")
	s.reopenIn = in
	return usecase.SubmitOutput{View: s.view()}, s.err
}

func (s *stubUseCase) Amend(_ context.Context, in usecase.AmendInput) (usecase.AmendOutput, error) {
	s.calls = append(s.calls, "amend")
	s.amendIn = in
	return usecase.AmendOutput{View: s.view()}, s.err
}

func (s *stubUseCase) SetSectionVisibility(_ context.Context, in usecase.SectionVisibilityInput) (usecase.View, error) {
	s.calls = append(s.calls, "sections")
	s.visibilityIn = in
	return s.view(), s.err
}

func (s *stubUseCase) Preview(_ context.Context, websiteID string) (usecase.View, error) {
	s.calls = append(s.calls, "preview")
	s.websiteID = websiteID
	return s.view(), s.err
}

func (s *stubUseCase) Upload(_ context.Context, in usecase.UploadInput) (usecase.SubmitOutput, error) {
	s.calls = append(s.calls, "upload")
	s.uploadIn = in
	return usecase.SubmitOutput{View: s.view()}, s.err
}

func (s *stubUseCase) Quote(_ context.Context, websiteID string) (usecase.Quote, error) {
	s.calls = append(s.calls, "quote")
	s.websiteID = websiteID
	return usecase.Quote{FirstPeriod: "39.00", Standard: "59.00"}, s.err
}

func (s *stubUseCase) Checkout(_ context.Context, websiteID string) (usecase.CheckoutOutput, error) {
	s.calls = append(s.calls, "checkout")
	s.websiteID = websiteID
	return usecase.CheckoutOutput{View: s.view(), RedirectURL: "https://pay.example.com/s/1"}, s.err
}

func (s *stubUseCase) SavedSteps(_ context.Context, websiteID string) ([]usecase.SavedStep, error) {
	s.calls = append(s.calls, "steps")
	s.websiteID = websiteID
	return []usecase.SavedStep{{StepIndex: 0, Step: domain.StepBusinessCategory}}, s.err
}

func makeEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, uc *stubUseCase, opts ...Option) *Handler {
	t.Helper()
	h, err := NewHandler(uc, opts...)
	require.NoError(t, err)
	return h
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_Start(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/sessions", `{"businessName":"Rosa","category":"Restaurant","city":"Berlin","directoryLink":"https://maps.app.goo.gl/x"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, usecase.StartInput{BusinessName: "Rosa", Category: "Restaurant", City: "Berlin", DirectoryLink: "https://maps.app.goo.gl/x"}, uc.startIn)

	out := parseBody[usecase.StartOutput](t, resp.Body)
	require.Equal(t, "site-1", out.WebsiteID)
	require.Equal(t, domain.StepColorScheme, out.Step)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_Routes(t *testing.T) {
	cases := []struct {
		name   string
		event  events.APIGatewayProxyRequest
		call   string
		status int
	}{
		{name: "preview", event: makeEvent(http.MethodGet, "/sessions/site-1", ""), call: "preview", status: http.StatusOK},
		{name: "submit", event: makeEvent(http.MethodPost, "/sessions/site-1/submit", `{"step":"colorScheme","text":"ocean"}`), call: "submit", status: http.StatusOK},
		{name: "reopen", event: makeEvent(http.MethodPost, "/sessions/site-1/reopen", `{"step":"legalEmail"}`), call: "reopen", status: http.StatusOK},
		{name: "amend", event: makeEvent(http.MethodPatch, "/sessions/site-1/messages/m-1", `{"text":"forest"}`), call: "amend", status: http.StatusOK},
		{name: "sections", event: makeEvent(http.MethodPut, "/sessions/site-1/sections/about", `{"visible":false}`), call: "sections", status: http.StatusOK},
		{name: "quote", event: makeEvent(http.MethodGet, "/sessions/site-1/quote", ""), call: "quote", status: http.StatusOK},
		{name: "checkout", event: makeEvent(http.MethodPost, "/sessions/site-1/checkout", ""), call: "checkout", status: http.StatusOK},
		{name: "steps", event: makeEvent(http.MethodGet, "/sessions/site-1/steps", ""), call: "steps", status: http.StatusOK},
		{name: "unknown route", event: makeEvent(http.MethodGet, "/nope", ""), status: http.StatusNotFound},
		{name: "wrong method", event: makeEvent(http.MethodDelete, "/sessions/site-1", ""), status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{}
			resp, err := newTestHandler(t, uc).Handle(context.Background(), tc.event)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.call == "" {
				require.Empty(t, uc.calls)
				return
			}
			require.Equal(t, []string{tc.call}, uc.calls)
		})
	}
}

func TestHandle_PassesPathParameters(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)
	ctx := context.Background()

	_, err := h.Handle(ctx, makeEvent(http.MethodPost, "/sessions/site-1/submit/", `{"step":"colorScheme","text":"ocean"}`))
	require.NoError(t, err)
	require.Equal(t, usecase.SubmitInput{WebsiteID: "site-1", Step: "colorScheme", Text: "ocean"}, uc.submitIn)

	_, err = h.Handle(ctx, makeEvent(http.MethodPatch, "/sessions/site-1/messages/m-1", `{"text":"forest"}`))
	require.NoError(t, err)
	require.Equal(t, usecase.AmendInput{WebsiteID: "site-1", MessageID: "m-1", Text: "forest"}, uc.amendIn)

	_, err = h.Handle(ctx, makeEvent(http.MethodPut, "/sessions/site-1/sections/gallery", `{"visible":true}`))
	require.NoError(t, err)
	require.Equal(t, usecase.SectionVisibilityInput{WebsiteID: "site-1", Section: "gallery", Visible: true}, uc.visibilityIn)
}

func TestHandle_UploadDecodesBase64(t *testing.T) {
	uc := &stubUseCase{}
	event := makeEvent(http.MethodPost, "/sessions/site-1/uploads/heroImage", base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")))
	event.IsBase64Encoded = true
	event.Headers = map[string]string{"content-type": "image/jpeg"}

	resp, err := newTestHandler(t, uc).Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.UploadInput{WebsiteID: "site-1", Step: "heroImage", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}, uc.uploadIn)

	event.Body = "%%%"
	resp, err = newTestHandler(t, uc).Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandle_InvalidBody(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)

	for _, body := range []string{`not-json`, ``} {
		resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/sessions/site-1/submit", body))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		out := parseBody[errorResponse](t, resp.Body)
		require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
		require.Equal(t, "invalid_body", out.Reason)
	}
	require.Empty(t, uc.calls)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "unknown_step"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "not found", err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "session_not_found"}, status: http.StatusNotFound, code: string(usecase.ErrorNotFound)},
		{name: "conflict", err: &usecase.Error{Code: usecase.ErrorConflict, Reason: "version_conflict"}, status: http.StatusConflict, code: string(usecase.ErrorConflict)},
		{name: "rate limited", err: &usecase.Error{Code: usecase.ErrorRateLimited, Reason: "suggestion_rate_limited"}, status: http.StatusTooManyRequests, code: string(usecase.ErrorRateLimited)},
		{name: "upstream", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "openai_error"}, status: http.StatusBadGateway, code: string(usecase.ErrorUpstream)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "dynamodb_write_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			resp, err := newTestHandler(t, uc).Handle(context.Background(), makeEvent(http.MethodPost, "/sessions/site-1/submit", `{"step":"colorScheme","text":"ocean"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
			require.Equal(t, resp.Headers["X-Correlation-Id"], out.CorrelationID)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := newTestHandler(t, &stubUseCase{})

	event := makeEvent(http.MethodGet, "/sessions/site-1", "")
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_Metrics(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.IncCheckout()

	resp, err := newTestHandler(t, &stubUseCase{}, WithMetrics(rec.Gatherer())).Handle(context.Background(), makeEvent(http.MethodGet, "/metrics", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, metrics.TextContentType, resp.Headers["Content-Type"])
	require.Contains(t, resp.Body, "onboarding_checkouts_total 1")

	resp, err = newTestHandler(t, &stubUseCase{}).Handle(context.Background(), makeEvent(http.MethodGet, "/metrics", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
