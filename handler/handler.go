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
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"

	"support-router/internal/domain"
	"support-router/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Dispatcher routes a decoded request to its intent handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, req usecase.Request) (domain.Result, error)
}

// InteractionLogger persists the audit row for a dispatched request.
type InteractionLogger interface {
	Log(ctx context.Context, req usecase.Request, result domain.Result) error
}

// envelope is the subset of an API Gateway HTTP API (payload 2.0) event the
// handler reads. Body may be a JSON string or an already decoded object.
type envelope struct {
	Body            json.RawMessage   `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	Headers         map[string]string `json:"headers"`
	RequestContext  struct {
		RequestID string `json:"requestId"`
	} `json:"requestContext"`
}

// requestBody keeps intent and fields raw so an absent key can be told apart
// from an explicit null.
type requestBody struct {
	Intent     json.RawMessage `json:"intent"`
	Confidence *float64        `json:"confidence"`
	Message    string          `json:"message"`
	FromEmail  string          `json:"from_email"`
	Fields     json.RawMessage `json:"fields"`
}

type errorBody struct {
	Status             string `json:"status"`
	MessageForCustomer string `json:"message_for_customer"`
}

var internalErrorBody = mustMarshal(errorBody{
	Status:             domain.StatusError,
	MessageForCustomer: "Internal error",
})

type Handler struct {
	router Dispatcher
	audit  InteractionLogger
}

func NewHandler(router Dispatcher, audit InteractionLogger) (*Handler, error) {
	if router == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if audit == nil {
		return nil, errors.New("handler: interaction logger must not be nil")
	}
	return &Handler{router: router, audit: audit}, nil
}

// Handle never returns an error to the Lambda runtime. Every failure becomes
// a 500 with a generic body; the cause is only written to the log.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
	var env envelope
	envErr := json.Unmarshal(raw, &env)

	correlationID := resolveCorrelationID(env)
	logger := slog.With("correlation_id", correlationID)

	if envErr != nil {
		logger.Error("failed to decode event", "err", envErr)
		return errorResponse(correlationID), nil
	}

	req, err := decodeRequest(env)
	if err != nil {
		logFailure(logger, "failed to decode request body", usecase.Request{}, err)
		return errorResponse(correlationID), nil
	}

	result, err := h.router.Dispatch(ctx, req)
	if err != nil {
		logFailure(logger, "dispatch failed", req, err)
		return errorResponse(correlationID), nil
	}

	if err := h.audit.Log(ctx, req, result); err != nil {
		logFailure(logger, "interaction log failed", req, err)
		return errorResponse(correlationID), nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		logger.Error("failed to encode result", "err", err)
		return errorResponse(correlationID), nil
	}

	logger.Info("request handled", "intent", intentAttr(req.Intent), "confidence", req.Confidence, "status", result.Status)
	return response(http.StatusOK, string(body), correlationID), nil
}

func decodeRequest(env envelope) (usecase.Request, error) {
	payload := bytes.TrimSpace(env.Body)
	if len(payload) == 0 || isNull(payload) {
		return usecase.Request{}, newDecodeError("missing_body", errors.New("request body is missing"))
	}

	if payload[0] == '"' {
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return usecase.Request{}, newDecodeError("invalid_body_string", err)
		}
		if env.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return usecase.Request{}, newDecodeError("invalid_base64_body", err)
			}
			s = string(decoded)
		}
		payload = []byte(s)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || isNull(payload) {
		return usecase.Request{}, newDecodeError("null_body", errors.New("request body is null"))
	}

	var body requestBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return usecase.Request{}, newDecodeError("invalid_body", err)
	}

	req := usecase.Request{
		Message:   body.Message,
		FromEmail: body.FromEmail,
	}

	switch {
	case body.Intent == nil:
		req.Intent = aws.String(domain.DefaultIntent)
	case isNull(body.Intent):
		// explicit null is echoed back as null
	default:
		var intent string
		if err := json.Unmarshal(body.Intent, &intent); err != nil {
			return usecase.Request{}, newDecodeError("invalid_intent", err)
		}
		req.Intent = &intent
	}

	if body.Confidence != nil {
		req.Confidence = *body.Confidence
	}

	switch {
	case body.Fields == nil:
		req.Fields = map[string]any{}
	case isNull(body.Fields):
		// left nil; handlers that read fields reject it
	default:
		if err := json.Unmarshal(body.Fields, &req.Fields); err != nil {
			return usecase.Request{}, newDecodeError("invalid_fields", err)
		}
	}
	return req, nil
}

// intentAttr renders a nullable intent for log lines.
func intentAttr(intent *string) any {
	if intent == nil {
		return nil
	}
	return *intent
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func newDecodeError(reason string, err error) *usecase.Error {
	return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: reason, Err: err}
}

func logFailure(logger *slog.Logger, msg string, req usecase.Request, err error) {
	attrs := []any{"intent", intentAttr(req.Intent), "err", err}
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		attrs = append(attrs, "code", ucErr.Code, "reason", ucErr.Reason)
	}
	logger.Error(msg, attrs...)
}

func resolveCorrelationID(env envelope) string {
	for k, v := range env.Headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return v
		}
	}
	if id := strings.TrimSpace(env.RequestContext.RequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

func response(status int, body, correlationID string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: body,
	}
}

func errorResponse(correlationID string) events.APIGatewayV2HTTPResponse {
	return response(http.StatusInternalServerError, internalErrorBody, correlationID)
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
