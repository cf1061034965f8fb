package app

import (
	"context"
	"fmt"
	"log/slog"

	"support-router/handler"
	"support-router/internal/config"
	"support-router/internal/usecase"
)

// ResetLinkSource looks up the reset link base URL, returning fallback when
// none is stored.
type ResetLinkSource interface {
	ResetLinkBase(ctx context.Context, name, fallback string) (string, error)
}

// Build wires the router, the interaction logger and the entry handler over
// store. params may be nil, in which case the configured base URL is used.
func Build(ctx context.Context, cfg config.Config, store usecase.RecordWriter, params ResetLinkSource) (*handler.Handler, error) {
	resetBase := cfg.ResetLinkBaseURL
	if name := cfg.ResetLinkParameter(); name != "" && params != nil {
		v, err := params.ResetLinkBase(ctx, name, resetBase)
		if err != nil {
			return nil, fmt.Errorf("app: resolve reset link base: %w", err)
		}
		resetBase = v
	}
	slog.Debug("reset link base resolved", "url", resetBase)

	router, err := usecase.NewRouter(store, usecase.WithResetLinkBase(resetBase))
	if err != nil {
		return nil, fmt.Errorf("app: create router: %w", err)
	}
	audit, err := usecase.NewInteractionLogger(store)
	if err != nil {
		return nil, fmt.Errorf("app: create interaction logger: %w", err)
	}
	h, err := handler.NewHandler(router, audit)
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}
	return h, nil
}
