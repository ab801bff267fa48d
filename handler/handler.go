package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"site-onboarding/internal/metrics"
	"site-onboarding/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type UseCase interface {
	Start(ctx context.Context, in usecase.StartInput) (usecase.StartOutput, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
	Reopen(ctx context.Context, in usecase.ReopenInput) (usecase.SubmitOutput, error)
	Amend(ctx context.Context, in usecase.AmendInput) (usecase.AmendOutput, error)
	SetSectionVisibility(ctx context.Context, in usecase.SectionVisibilityInput) (usecase.View, error)
	Preview(ctx context.Context, websiteID string) (usecase.View, error)
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.SubmitOutput, error)
	Quote(ctx context.Context, websiteID string) (usecase.Quote, error)
	Checkout(ctx context.Context, websiteID string) (usecase.CheckoutOutput, error)
	SavedSteps(ctx context.Context, websiteID string) ([]usecase.SavedStep, error)
}

type startRequest struct {
	WebsiteID     string `json:"websiteId"`
	BusinessName  string `json:"businessName"`
	Category      string `json:"category"`
	City          string `json:"city"`
	DirectoryLink string `json:"directoryLink"`
}

type submitRequest struct {
	Step string `json:"step"`
	Text string `json:"text"`
}

type amendRequest struct {
	Text string `json:"text"`
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

type stepsResponse struct {
	Steps []usecase.SavedStep `json:"steps"`
}

type errorResponse struct {
	Error         string `json:"error"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlationId"`
}

type Handler struct {
	uc       UseCase
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

type Option func(*Handler)

// WithMetrics serves the metrics of g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.gatherer = g
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(uc UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: usecase must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle routes an API Gateway proxy request:
//
//	POST  /sessions
//	GET   /sessions/{id}
//	POST  /sessions/{id}/submit
//	POST  /sessions/{id}/reopen
//	PATCH /sessions/{id}/messages/{messageId}
//	PUT   /sessions/{id}/sections/{type}
//	POST  /sessions/{id}/uploads/{step}
//	GET   /sessions/{id}/quote
//	POST  /sessions/{id}/checkout
//	GET   /sessions/{id}/steps
//	GET   /metrics
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(event.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}

	segments := strings.Split(strings.Trim(event.Path, "/"), "/")
	method := strings.ToUpper(event.HTTPMethod)

	if len(segments) == 1 && segments[0] == "metrics" && method == http.MethodGet {
		return h.metrics(corrID), nil
	}
	if len(segments) == 0 || segments[0] != "sessions" {
		return errorJSON(http.StatusNotFound, "NOT_FOUND", "unknown_route", corrID), nil
	}

	switch {
	case len(segments) == 1 && method == http.MethodPost:
		var req startRequest
		if !decode(event.Body, &req) {
			return invalidBody(corrID), nil
		}
		out, err := h.uc.Start(ctx, usecase.StartInput{
			WebsiteID:     req.WebsiteID,
			BusinessName:  req.BusinessName,
			Category:      req.Category,
			City:          req.City,
			DirectoryLink: req.DirectoryLink,
		})
		return h.respond(http.StatusCreated, out, err, corrID), nil

	case len(segments) == 2 && method == http.MethodGet:
		out, err := h.uc.Preview(ctx, segments[1])
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 3 && segments[2] == "submit" && method == http.MethodPost:
		var req submitRequest
		if !decode(event.Body, &req) {
			return invalidBody(corrID), nil
		}
		out, err := h.uc.Submit(ctx, usecase.SubmitInput{WebsiteID: segments[1], Step: req.Step, Text: req.Text})
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 3 && segments[2] == "reopen" && method == http.MethodPost:
		var req submitRequest
		if !decode(event.Body, &req) {
			return invalidBody(corrID), nil
		}
		out, err := h.uc.Reopen(ctx, usecase.ReopenInput{WebsiteID: segments[1], Step: req.Step})
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 4 && segments[2] == "messages" && method == http.MethodPatch:
		var req amendRequest
		if !decode(event.Body, &req) {
			return invalidBody(corrID), nil
		}
		out, err := h.uc.Amend(ctx, usecase.AmendInput{WebsiteID: segments[1], MessageID: segments[3], Text: req.Text})
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 4 && segments[2] == "sections" && method == http.MethodPut:
		var req visibilityRequest
		if !decode(event.Body, &req) {
			return invalidBody(corrID), nil
		}
		out, err := h.uc.SetSectionVisibility(ctx, usecase.SectionVisibilityInput{WebsiteID: segments[1], Section: segments[3], Visible: req.Visible})
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 4 && segments[2] == "uploads" && method == http.MethodPost:
		data := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				return invalidBody(corrID), nil
			}
			data = decoded
		}
		out, err := h.uc.Upload(ctx, usecase.UploadInput{
			WebsiteID:   segments[1],
			Step:        segments[3],
			ContentType: headerValue(event.Headers, "Content-Type"),
			Data:        data,
		})
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 3 && segments[2] == "quote" && method == http.MethodGet:
		out, err := h.uc.Quote(ctx, segments[1])
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 3 && segments[2] == "checkout" && method == http.MethodPost:
		out, err := h.uc.Checkout(ctx, segments[1])
		return h.respond(http.StatusOK, out, err, corrID), nil

	case len(segments) == 3 && segments[2] == "steps" && method == http.MethodGet:
		steps, err := h.uc.SavedSteps(ctx, segments[1])
		return h.respond(http.StatusOK, stepsResponse{Steps: steps}, err, corrID), nil
	}
	return errorJSON(http.StatusNotFound, "NOT_FOUND", "unknown_route", corrID), nil
}

func (h *Handler) respond(status int, body any, err error, corrID string) events.APIGatewayProxyResponse {
	if err == nil {
		return jsonResponse(status, body, corrID)
	}
	code, reason := string(usecase.ErrorInternal), "unexpected_error"
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		code, reason = string(ucErr.Code), ucErr.Reason
	}
	status = statusFor(usecase.ErrorCode(code))
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "correlation_id", corrID, "code", code, "reason", reason, "err", err)
	}
	return errorJSON(status, code, reason, corrID)
}

func (h *Handler) metrics(corrID string) events.APIGatewayProxyResponse {
	if h.gatherer == nil {
		return errorJSON(http.StatusNotFound, "NOT_FOUND", "metrics_disabled", corrID)
	}
	var buf bytes.Buffer
	if err := metrics.WriteText(&buf, h.gatherer); err != nil {
		h.logger.Error("metrics exposition failed", "correlation_id", corrID, "err", err)
		return errorJSON(http.StatusInternalServerError, string(usecase.ErrorInternal), "metrics_error", corrID)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": metrics.TextContentType, correlationHeader: corrID},
		Body:       buf.String(),
	}
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorConflict:
		return http.StatusConflict
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(body string, v any) bool {
	if strings.TrimSpace(body) == "" {
		return false
	}
	return json.Unmarshal([]byte(body), v) == nil
}

func invalidBody(corrID string) events.APIGatewayProxyResponse {
	return errorJSON(http.StatusBadRequest, string(usecase.ErrorInvalidInput), "invalid_body", corrID)
}

func errorJSON(status int, code, reason, corrID string) events.APIGatewayProxyResponse {
	return jsonResponse(status, errorResponse{Error: code, Reason: reason, CorrelationID: corrID}, corrID)
}

func jsonResponse(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}
}

// headerValue looks up a header case-insensitively.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
