package domain

import "context"

func (app *Application) GetProfile(ctx context.Context, id int64) (*Brawler, error) {
	if id <= 0 {
		return nil, fail(ctx, "get profile", ErrInvalidData)
	}
	b, err := app.repo.GetBrawler(ctx, id)
	if err != nil {
		return nil, fail(ctx, "get profile", err)
	}
	return b, nil
}
