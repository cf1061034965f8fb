package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const maxLocalBody = 1 << 20

// ServeHTTP adapts a plain HTTP request into a Lambda event so the handler
// can run outside Lambda, e.g. under the local runner.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLocalBody))
	if err != nil {
		slog.Error("failed to read request body", "err", err)
		writeInternalError(w)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	event, err := json.Marshal(map[string]any{
		"version": "2.0",
		"rawPath": r.URL.Path,
		"headers": headers,
		"body":    string(body),
	})
	if err != nil {
		slog.Error("failed to encode event", "err", err)
		writeInternalError(w)
		return
	}

	resp, _ := h.Handle(r.Context(), event)
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, internalErrorBody)
}
