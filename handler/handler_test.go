package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"support-router/internal/domain"
	"support-router/internal/repository"
	"support-router/internal/usecase"
)

type stubRouter struct {
	out   domain.Result
	err   error
	in    usecase.Request
	calls int
}

func (s *stubRouter) Dispatch(_ context.Context, in usecase.Request) (domain.Result, error) {
	s.in = in
	s.calls++
	return s.out, s.err
}

type stubAudit struct {
	err    error
	req    usecase.Request
	result domain.Result
	calls  int
}

func (s *stubAudit) Log(_ context.Context, req usecase.Request, result domain.Result) error {
	s.req = req
	s.result = result
	s.calls++
	return s.err
}

func makeEvent(t *testing.T, body any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"version":         "2.0",
		"rawPath":         "/support",
		"headers":         map[string]string{"content-type": "application/json"},
		"body":            body,
		"isBase64Encoded": false,
	})
	require.NoError(t, err)
	return raw
}

func label(s string) *string { return &s }

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func mustNewHandler(t *testing.T, r Dispatcher, a InteractionLogger) *Handler {
	t.Helper()
	h, err := NewHandler(r, a)
	require.NoError(t, err)
	return h
}

func requireInternalError(t *testing.T, status int, body string) {
	t.Helper()
	require.Equal(t, http.StatusInternalServerError, status)
	require.JSONEq(t, `{"status":"error","message_for_customer":"Internal error"}`, body)
}

func TestNewHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewHandler(nil, &stubAudit{})
	require.Error(t, err)
	_, err = NewHandler(&stubRouter{}, nil)
	require.Error(t, err)
}

func TestHandle_StringBody(t *testing.T) {
	router := &stubRouter{out: domain.Result{Status: domain.StatusSuccess, Intent: label("refund"), MessageForCustomer: "done"}}
	audit := &stubAudit{}
	h := mustNewHandler(t, router, audit)

	body := `{"intent":"refund","confidence":0.91,"message":"money back","from_email":"a@b.com","fields":{"order_id":"ORD-1"}}`
	resp, err := h.Handle(context.Background(), makeEvent(t, body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	want := usecase.Request{
		Intent:     label("refund"),
		Confidence: 0.91,
		Message:    "money back",
		FromEmail:  "a@b.com",
		Fields:     map[string]any{"order_id": "ORD-1"},
	}
	require.Equal(t, want, router.in)
	require.Equal(t, 1, audit.calls)
	require.Equal(t, want, audit.req)
	require.Equal(t, router.out, audit.result)

	out := parseBody[domain.Result](t, resp.Body)
	require.Equal(t, router.out, out)
}

func TestHandle_DecodedObjectBody(t *testing.T) {
	router := &stubRouter{out: domain.Result{Status: domain.StatusEscalated, Intent: label("complaint"), MessageForCustomer: "noted"}}
	h := mustNewHandler(t, router, &stubAudit{})

	resp, err := h.Handle(context.Background(), makeEvent(t, map[string]any{"intent": "complaint", "message": "bad"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, label("complaint"), router.in.Intent)
	require.Equal(t, "bad", router.in.Message)
}

func TestHandle_Base64Body(t *testing.T) {
	router := &stubRouter{out: domain.Result{Status: domain.StatusSuccess}}
	h := mustNewHandler(t, router, &stubAudit{})

	raw, err := json.Marshal(map[string]any{
		"body":            base64.StdEncoding.EncodeToString([]byte(`{"intent":"password_reset","from_email":"a@b.com"}`)),
		"isBase64Encoded": true,
	})
	require.NoError(t, err)
	resp, err := h.Handle(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, label("password_reset"), router.in.Intent)
	require.Equal(t, "a@b.com", router.in.FromEmail)
}

func TestHandle_AppliesDefaults(t *testing.T) {
	router := &stubRouter{out: domain.Result{Status: domain.StatusEscalate, Intent: label("unknown")}}
	h := mustNewHandler(t, router, &stubAudit{})

	resp, err := h.Handle(context.Background(), makeEvent(t, `{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.Request{Intent: label("unknown"), Fields: map[string]any{}}, router.in)
}

func TestHandle_ExplicitNullsPassThrough(t *testing.T) {
	router := &stubRouter{out: domain.Result{Status: domain.StatusEscalate}}
	h := mustNewHandler(t, router, &stubAudit{})

	resp, err := h.Handle(context.Background(), makeEvent(t, `{"intent":null,"fields":null}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.Request{}, router.in)
}

func TestHandle_MalformedBody(t *testing.T) {
	for name, event := range map[string]json.RawMessage{
		"invalid json string": makeEvent(t, `not-json`),
		"missing body":        json.RawMessage(`{"headers":{}}`),
		"array body":          makeEvent(t, []int{1, 2}),
		"wrong field type":    makeEvent(t, `{"intent":"refund","confidence":"high"}`),
		"invalid envelope":    json.RawMessage(`{`),
		"null string body":    makeEvent(t, `null`),
		"non-string intent":   makeEvent(t, `{"intent":5}`),
		"non-object fields":   makeEvent(t, `{"intent":"refund","fields":[1]}`),
	} {
		t.Run(name, func(t *testing.T) {
			router := &stubRouter{}
			audit := &stubAudit{}
			h := mustNewHandler(t, router, audit)

			resp, err := h.Handle(context.Background(), event)
			require.NoError(t, err)
			requireInternalError(t, resp.StatusCode, resp.Body)
			require.Zero(t, router.calls)
			require.Zero(t, audit.calls)
		})
	}
}

func TestHandle_DispatchErrorSkipsLog(t *testing.T) {
	router := &stubRouter{err: &usecase.Error{Code: usecase.ErrorStore, Reason: "dynamodb_order_write_error", Err: errors.New("boom")}}
	audit := &stubAudit{}
	h := mustNewHandler(t, router, audit)

	resp, err := h.Handle(context.Background(), makeEvent(t, `{"intent":"refund","fields":{"order_id":"ORD-1"}}`))
	require.NoError(t, err)
	requireInternalError(t, resp.StatusCode, resp.Body)
	require.Zero(t, audit.calls)
	require.NotContains(t, resp.Body, "boom")
}

func TestHandle_LogErrorDiscardsResult(t *testing.T) {
	router := &stubRouter{out: domain.Result{Status: domain.StatusSuccess, Intent: label("refund"), MessageForCustomer: "done"}}
	audit := &stubAudit{err: errors.New("throttled")}
	h := mustNewHandler(t, router, audit)

	resp, err := h.Handle(context.Background(), makeEvent(t, `{"intent":"refund"}`))
	require.NoError(t, err)
	requireInternalError(t, resp.StatusCode, resp.Body)
	require.Equal(t, 1, router.calls)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := mustNewHandler(t, &stubRouter{}, &stubAudit{})

	raw, err := json.Marshal(map[string]any{
		"headers": map[string]string{"x-correlation-id": "corr-123"},
		"body":    `{"intent":"refund"}`,
	})
	require.NoError(t, err)
	resp, err := h.Handle(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_FallsBackToRequestID(t *testing.T) {
	h := mustNewHandler(t, &stubRouter{}, &stubAudit{})

	raw, err := json.Marshal(map[string]any{
		"requestContext": map[string]string{"requestId": "req-9"},
		"body":           `not-json`,
	})
	require.NoError(t, err)
	resp, err := h.Handle(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "req-9", resp.Headers["X-Correlation-Id"])
}

// End to end through the real router, logger and in-memory store.
func newWiredHandler(t *testing.T) (*Handler, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	router, err := usecase.NewRouter(store)
	require.NoError(t, err)
	audit, err := usecase.NewInteractionLogger(store)
	require.NoError(t, err)
	return mustNewHandler(t, router, audit), store
}

func TestHandle_EveryDispatchLogsOnce(t *testing.T) {
	bodies := []string{
		`{"intent":"refund","fields":{"order_id":"ORD-1"}}`,
		`{"intent":"refund"}`,
		`{"intent":"password_reset","from_email":"a@b.com"}`,
		`{"intent":"cancel_subscription","from_email":"a@b.com"}`,
		`{"intent":"account_update","from_email":"a@b.com"}`,
		`{"intent":"complaint","message":"slow"}`,
		`{"intent":"Refund"}`,
		`{}`,
	}
	h, store := newWiredHandler(t)

	for i, body := range bodies {
		resp, err := h.Handle(context.Background(), makeEvent(t, body))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		out := parseBody[domain.Result](t, resp.Body)
		logs := store.Logs()
		require.Len(t, logs, i+1)
		require.Equal(t, out.Status, logs[i].ResultStatus)
		require.Equal(t, out.Intent, logs[i].ResultIntent)
	}
}

func TestHandle_ReplayedRefundDuplicatesAudit(t *testing.T) {
	h, store := newWiredHandler(t)
	event := makeEvent(t, `{"intent":"refund","confidence":0.7,"from_email":"a@b.com","fields":{"order_id":"ORD-1"}}`)

	for i := 0; i < 2; i++ {
		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.Len(t, store.Logs(), 2)
	require.Equal(t, 2, store.OrderWrites("ORD-1"))
	order, ok := store.Order("ORD-1")
	require.True(t, ok)
	require.Equal(t, domain.OrderStatusRefundInitiated, order.Status)
}

func TestHandle_MalformedBodyWritesNoLog(t *testing.T) {
	h, store := newWiredHandler(t)

	resp, err := h.Handle(context.Background(), makeEvent(t, `{"intent":`))
	require.NoError(t, err)
	requireInternalError(t, resp.StatusCode, resp.Body)
	require.Empty(t, store.Logs())
}

func TestHandle_UnrecognizedIntentEchoedInBodyAndLog(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		intent json.RawMessage
		want   *string
	}{
		{name: "empty", body: `{"intent":""}`, intent: json.RawMessage(`""`), want: label("")},
		{name: "null", body: `{"intent":null}`, intent: json.RawMessage(`null`), want: nil},
		{name: "mixed case", body: `{"intent":"Refund"}`, intent: json.RawMessage(`"Refund"`), want: label("Refund")},
		{name: "unknown", body: `{"intent":"unknown"}`, intent: json.RawMessage(`"unknown"`), want: label("unknown")},
		{name: "absent", body: `{}`, intent: json.RawMessage(`"unknown"`), want: label("unknown")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, store := newWiredHandler(t)

			resp, err := h.Handle(context.Background(), makeEvent(t, tc.body))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			out := parseBody[map[string]json.RawMessage](t, resp.Body)
			require.JSONEq(t, `"escalate"`, string(out["status"]))
			raw, ok := out["intent"]
			require.True(t, ok, "intent key missing from %s", resp.Body)
			require.JSONEq(t, string(tc.intent), string(raw))

			logs := store.Logs()
			require.Len(t, logs, 1)
			require.Equal(t, domain.StatusEscalate, logs[0].ResultStatus)
			require.Equal(t, tc.want, logs[0].ResultIntent)
			require.Equal(t, tc.want, logs[0].Intent)
		})
	}
}

func TestHandle_NullFieldsFailWhereRead(t *testing.T) {
	for _, intent := range []string{"refund", "account_update"} {
		t.Run(intent, func(t *testing.T) {
			h, store := newWiredHandler(t)

			resp, err := h.Handle(context.Background(), makeEvent(t, `{"intent":"`+intent+`","from_email":"a@b.com","fields":null}`))
			require.NoError(t, err)
			requireInternalError(t, resp.StatusCode, resp.Body)
			require.Empty(t, store.Logs())
			_, ok := store.User("a@b.com")
			require.False(t, ok)
		})
	}
}

func TestHandle_NullFieldsIgnoredWhereUnread(t *testing.T) {
	h, store := newWiredHandler(t)

	resp, err := h.Handle(context.Background(), makeEvent(t, `{"intent":"complaint","fields":null}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, store.Complaints(), 1)
	require.Len(t, store.Logs(), 1)
}
