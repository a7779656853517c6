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

// Package cache decorates a BrawlerRepository with a read-through KV cache.
// The decorated repository stays the source of truth: cache failures are
// logged and otherwise ignored. Entries only move forward in version, so a
// slow writer can never replace a newer entry with an older read.
package cache

import (
	"context"
	"log/slog"
	"strconv"

	"brawler/core/brawler/domain"
	"brawler/modules/db"
)

var _ domain.BrawlerRepository = (*CachedBrawlerRepository)(nil)

type CachedBrawlerRepository struct {
	inner domain.BrawlerRepository
	kv    db.JSONKV[domain.Brawler]
}

// versionField is the JSON member the KV compares before overwriting an entry.
const versionField = "Version"

// New wraps inner with kv. Key scoping and TTL are the KV's concern.
func New(inner domain.BrawlerRepository, kv db.VersionedKV) *CachedBrawlerRepository {
	return &CachedBrawlerRepository{
		inner: inner,
		kv:    db.NewJSONKV[domain.Brawler](kv),
	}
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Register implements domain.BrawlerRepository.
func (c *CachedBrawlerRepository) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Brawler, error) {
	created, err := c.inner.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, created)
	return created, nil
}

// UpdateDisplayName implements domain.BrawlerRepository.
func (c *CachedBrawlerRepository) UpdateDisplayName(ctx context.Context, id int64, name string) error {
	if err := c.inner.UpdateDisplayName(ctx, id, name); err != nil {
		return err
	}
	c.refresh(ctx, id)
	return nil
}

// StoreAvatar implements domain.BrawlerRepository.
func (c *CachedBrawlerRepository) StoreAvatar(ctx context.Context, id int64, encoded string) (*domain.UploadedImage, error) {
	img, err := c.inner.StoreAvatar(ctx, id, encoded)
	if err != nil {
		return nil, err
	}
	c.refresh(ctx, id)
	return img, nil
}

// GetBrawler implements domain.BrawlerRepository.
func (c *CachedBrawlerRepository) GetBrawler(ctx context.Context, id int64) (*domain.Brawler, error) {
	cached, err := c.kv.Get(ctx, key(id))
	if err != nil {
		slog.WarnContext(ctx, "brawler cache read failed", slog.Int64("brawler_id", id), slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	b, err := c.inner.GetBrawler(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, b)
	return b, nil
}

// refresh re-reads id from the inner repository so the cached entry carries
// the post-mutation version.
func (c *CachedBrawlerRepository) refresh(ctx context.Context, id int64) {
	b, err := c.inner.GetBrawler(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "brawler cache refresh failed", slog.Int64("brawler_id", id), slog.Any("error", err))
		return
	}
	c.store(ctx, b)
}

func (c *CachedBrawlerRepository) store(ctx context.Context, b *domain.Brawler) {
	stored, err := c.kv.SetIfNewer(ctx, key(b.ID), *b, versionField, b.Version)
	if err != nil {
		slog.WarnContext(ctx, "brawler cache write failed", slog.Int64("brawler_id", b.ID), slog.Any("error", err))
		return
	}
	if !stored {
		slog.DebugContext(ctx, "brawler cache holds a newer version",
			slog.Int64("brawler_id", b.ID), slog.Int64("version", b.Version))
	}
}
