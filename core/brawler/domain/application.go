package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

func NewApp(repo BrawlerRepository) *Application {
	return &Application{repo: repo}
}

// fail classifies a repository error and wraps it for the transport layer.
func fail(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, ErrDuplicateBrawler),
		errors.Is(err, ErrBrawlerNotFound),
		errors.Is(err, ErrInvalidData):
		slog.DebugContext(ctx, "domain error", slog.String("op", op), slog.Any("error", err))
	case errors.Is(err, ErrUnavailable):
		slog.ErrorContext(ctx, "store unavailable", slog.String("op", op), slog.Any("error", err))
	default:
		slog.ErrorContext(ctx, "unexpected error", slog.String("op", op), slog.Any("error", err))
		err = fmt.Errorf("%w: %v", ErrUnhandled, err)
	}
	return &UseCaseError{Op: op, Err: err}
}
