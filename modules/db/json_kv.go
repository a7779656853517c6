// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnversioned = errors.New("jsonkv: store does not support versioned writes")

type (

	// JSONKV wraps a db.KV and transparently JSON-encodes/decodes values of type T.
	//
	// It uses AtomicGet/AtomicSet under the hood but exposes a typed API:
	//
	//   kv := NewRedisKV(client, WithKeyPrefix("brawler:"))
	//   brawlers := NewJSONKV[domain.Brawler](kv)
	//   prev, _ := brawlers.Set(ctx, "42", b)
	//   curr, _ := brawlers.Get(ctx, "42")
	JSONKV[T any] struct {
		KV
	}
)

// NewJSONKV constructs a JSONKV wrapper on top of an existing db.KV.
func NewJSONKV[T any](kv KV) JSONKV[T] {
	return JSONKV[T]{KV: kv}
}

func (j JSONKV[T]) Get(ctx context.Context, key string) (*T, error) {
	raw, err := j.KV.AtomicGet(ctx, key)
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, nil
	}

	v, err := decode[T](raw)
	if err != nil {
		return nil, fmt.Errorf("jsonkv: decode %q: %w", key, err)
	}
	return v, nil
}

// Set atomically sets key to value and returns the previous value (if any), decoded into T.
// value is JSON-encoded before it reaches the KV.
func (j JSONKV[T]) Set(ctx context.Context, key string, value T) (*T, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("jsonkv: encode %q: %w", key, err)
	}
	prev, err := j.KV.AtomicSet(ctx, key, encoded)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}

	v, err := decode[T](prev)
	if err != nil {
		return nil, fmt.Errorf("jsonkv: decode previous value for key %q: %w", key, err)
	}
	return v, nil
}

// SetIfNewer stores value unless the stored document's field holds a version
// greater than version. The underlying KV must implement VersionedKV.
func (j JSONKV[T]) SetIfNewer(ctx context.Context, key string, value T, field string, version int64) (bool, error) {
	vkv, ok := j.KV.(VersionedKV)
	if !ok {
		return false, ErrUnversioned
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("jsonkv: encode %q: %w", key, err)
	}
	return vkv.SetIfNewer(ctx, key, encoded, field, version)
}

// decode accepts the raw representations a KV may hand back.
func decode[T any](raw any) (*T, error) {
	var bs []byte
	switch x := raw.(type) {
	case []byte:
		bs = x
	case string:
		bs = []byte(x)
	default:
		return nil, fmt.Errorf("expected []byte, got %T", raw)
	}

	var v T
	if err := json.Unmarshal(bs, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
