// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pg

import (
	"context"
	"fmt"

	"brawler/core/brawler/domain"
	"brawler/modules/db"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

var _ domain.BrawlerRepository = (*PostgresBrawlerRepository)(nil)

type (
	// PostgresBrawlerRepository keeps every statement prepared on the primary.
	// Reads go to the primary too so a refresh right after a write sees it.
	PostgresBrawlerRepository struct {
		table string

		registerStmt    bob.QueryStmt[registerArgs, BrawlerRow, []BrawlerRow]
		displayNameStmt bob.QueryStmt[displayNameArgs, int64, []int64]
		avatarStmt      bob.QueryStmt[avatarArgs, BrawlerRow, []BrawlerRow]
		getStmt         bob.QueryStmt[getArgs, BrawlerRow, []BrawlerRow]
	}

	registerArgs struct {
		Handle      string `db:"handle"`
		DisplayName string `db:"display_name"`
	}

	displayNameArgs struct {
		ID          int64  `db:"id"`
		DisplayName string `db:"display_name"`
	}

	avatarArgs struct {
		ID     int64  `db:"id"`
		Avatar string `db:"avatar"`
	}

	getArgs struct {
		ID int64 `db:"id"`
	}
)

// NewPostgresBrawlerRepository prepares all statements against the primary of pool.
func NewPostgresBrawlerRepository(ctx context.Context, pool db.ConnectionManager, table string) (*PostgresBrawlerRepository, error) {
	primary, ok := pool.Writer().(bob.DB)
	if !ok {
		return nil, fmt.Errorf("brawler repository: writer is %T, want bob.DB", pool.Writer())
	}

	r := &PostgresBrawlerRepository{table: table}

	// INSERT INTO ... RETURNING ...
	insertQuery := psql.Insert(
		im.Into(table, "handle", "display_name"),
		im.Values(
			bob.Named("handle"),
			bob.Named("display_name"),
		),
		im.Returning(brawlerColumns...),
	)
	registerStmt, err := bob.PrepareQuery[registerArgs](ctx, primary, insertQuery, scan.StructMapper[BrawlerRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare register brawler: %w", err)
	}
	r.registerStmt = registerStmt

	displayNameQuery := psql.Update(
		um.Table(table),
		um.SetCol("display_name").To(bob.Named("display_name")),
		um.SetCol("updated_at").To(psql.Raw("CURRENT_TIMESTAMP")),
		um.SetCol("version_number").To(psql.Raw("version_number + 1")),
		um.Where(psql.Quote("id").EQ(bob.Named("id"))),
		um.Returning("id"),
	)
	displayNameStmt, err := bob.PrepareQuery[displayNameArgs](ctx, primary, displayNameQuery, scan.SingleColumnMapper[int64])
	if err != nil {
		return nil, fmt.Errorf("prepare update display name: %w", err)
	}
	r.displayNameStmt = displayNameStmt

	avatarQuery := psql.Update(
		um.Table(table),
		um.SetCol("avatar").To(bob.Named("avatar")),
		um.SetCol("updated_at").To(psql.Raw("CURRENT_TIMESTAMP")),
		um.SetCol("version_number").To(psql.Raw("version_number + 1")),
		um.Where(psql.Quote("id").EQ(bob.Named("id"))),
		um.Returning(brawlerColumns...),
	)
	avatarStmt, err := bob.PrepareQuery[avatarArgs](ctx, primary, avatarQuery, scan.StructMapper[BrawlerRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare store avatar: %w", err)
	}
	r.avatarStmt = avatarStmt

	getQuery := psql.Select(
		sm.Columns(brawlerColumns...),
		sm.From(table),
		sm.Where(psql.Quote("id").EQ(bob.Named("id"))),
	)
	getStmt, err := bob.PrepareQuery[getArgs](ctx, primary, getQuery, scan.StructMapper[BrawlerRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare get brawler: %w", err)
	}
	r.getStmt = getStmt

	return r, nil
}

// Register implements domain.BrawlerRepository.
func (r *PostgresBrawlerRepository) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Brawler, error) {
	row, err := r.registerStmt.One(ctx, registerArgs{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, wrapBrawlerError(err)
	}
	return toBrawler(row), nil
}

// UpdateDisplayName implements domain.BrawlerRepository.
func (r *PostgresBrawlerRepository) UpdateDisplayName(ctx context.Context, id int64, name string) error {
	_, err := r.displayNameStmt.One(ctx, displayNameArgs{
		ID:          id,
		DisplayName: name,
	})
	return wrapBrawlerError(err)
}

// StoreAvatar implements domain.BrawlerRepository.
func (r *PostgresBrawlerRepository) StoreAvatar(ctx context.Context, id int64, encoded string) (*domain.UploadedImage, error) {
	row, err := r.avatarStmt.One(ctx, avatarArgs{
		ID:     id,
		Avatar: encoded,
	})
	if err != nil {
		return nil, wrapBrawlerError(err)
	}
	return &domain.UploadedImage{
		BrawlerID: row.ID,
		Base64:    row.Avatar.String,
	}, nil
}

// GetBrawler implements domain.BrawlerRepository.
func (r *PostgresBrawlerRepository) GetBrawler(ctx context.Context, id int64) (*domain.Brawler, error) {
	row, err := r.getStmt.One(ctx, getArgs{ID: id})
	if err != nil {
		return nil, wrapBrawlerError(err)
	}
	return toBrawler(row), nil
}
