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
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"brawler/core/brawler/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations holds the dbmate migrations for the brawlers table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

type (
	// BrawlerRow is the persistence entity shape used by storage adapters.
	BrawlerRow struct {
		ID          int64          `db:"id"`
		Handle      string         `db:"handle"`
		DisplayName string         `db:"display_name"`
		Avatar      sql.NullString `db:"avatar"`
		Version     int64          `db:"version_number"`
		CreatedAt   time.Time      `db:"created_at"`
		UpdatedAt   time.Time      `db:"updated_at"`
	}
)

var brawlerColumns = []any{"id", "handle", "display_name", "avatar", "version_number", "created_at", "updated_at"}

// toBrawler converts a BrawlerRow to a domain Brawler.
func toBrawler(row BrawlerRow) *domain.Brawler {
	b := &domain.Brawler{
		ID:          row.ID,
		Handle:      row.Handle,
		DisplayName: row.DisplayName,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Version:     row.Version,
	}
	if row.Avatar.Valid {
		avatar := row.Avatar.String
		b.Avatar = &avatar
	}
	return b
}

// wrapBrawlerError centralizes mapping of DB errors to domain errors.
// The driver error stays in the chain for logging.
func wrapBrawlerError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrBrawlerNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return fmt.Errorf("%w: %s", domain.ErrDuplicateBrawler, pgErr.ConstraintName)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08": // connection_exception
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		case pgErr.Code == "57P01", pgErr.Code == "57P03": // admin_shutdown, cannot_connect_now
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	return err
}
