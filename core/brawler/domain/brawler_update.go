package domain

import (
	"context"
	"log/slog"
)

// UpdateProfile sets the display name of the brawler identified by id.
// id must come from the caller's verified identity; empty names are accepted.
func (app *Application) UpdateProfile(ctx context.Context, id int64, displayName string) error {
	if id <= 0 {
		return fail(ctx, "update profile", ErrInvalidData)
	}
	if err := app.repo.UpdateDisplayName(ctx, id, displayName); err != nil {
		return fail(ctx, "update profile", err)
	}
	slog.DebugContext(ctx, "updated display name", slog.Int64("brawler_id", id))
	return nil
}
