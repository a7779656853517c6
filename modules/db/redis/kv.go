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

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"brawler/modules/db"

	"github.com/redis/rueidis"
)

// KEYS[1] = full key, ARGV[1] = value, ARGV[2] = TTL seconds ("" = none).
// Returns the previous value or nil.
const atomicSetLua = `
local prev = redis.call('GET', KEYS[1])
local ttl = tonumber(ARGV[2])
if ttl and ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'EX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return prev
`

// KEYS[1] = full key, ARGV[1] = value, ARGV[2] = TTL seconds ("" = none),
// ARGV[3] = version field, ARGV[4] = incoming version.
// Returns 1 when stored, 0 when the held document is newer.
const setIfNewerLua = `
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' then
    local held = tonumber(doc[ARGV[3]])
    if held and held > tonumber(ARGV[4]) then
      return 0
    end
  end
end
local ttl = tonumber(ARGV[2])
if ttl and ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'EX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`

var (
	_ db.VersionedKV = (*RedisKV)(nil)

	// the client needs EVAL/EVALSHA permission
	luaAtomicSet  = rueidis.NewLuaScript(atomicSetLua)
	luaSetIfNewer = rueidis.NewLuaScript(setIfNewerLua)
)

// RedisKV is a Rueidis-backed implementation of db.KV with:
//
//   - Key prefixing (env / service scoping)
//   - AtomicSet via Lua (GET + SET + TTL in one round-trip)
//   - Optional server-assisted client-side caching for reads (AtomicGet)
type RedisKV struct {
	client rueidis.Client

	// prefix is optional and ends with ":" if non-empty.
	prefix string

	// defaultTTL is applied to every AtomicSet if > 0.
	defaultTTL time.Duration

	// If true, AtomicGet will use DoCache with cache TTL = defaultTTL.
	enableClientCache bool
}

// RedisKVOption configures RedisKV.
type RedisKVOption func(*RedisKV)

// WithKeyPrefix scopes all keys under a prefix.
// Example: WithKeyPrefix("brawler:cache") → key "42" is stored as "brawler:cache:42".
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.prefix = prefix
	}
}

// WithDefaultTTL configures a default TTL for all AtomicSet operations.
// A value <= 0 means "no TTL".
func WithDefaultTTL(ttl time.Duration) RedisKVOption {
	return func(k *RedisKV) {
		k.defaultTTL = ttl
	}
}

// WithClientSideCache enables server-assisted client-side caching for AtomicGet.
// RedisConfig.ClientTrackingPrefixes must cover the key prefix.
func WithClientSideCache() RedisKVOption {
	return func(k *RedisKV) {
		k.enableClientCache = true
	}
}

// NewRedisKV constructs a RedisKV on top of an existing rueidis.Client.
func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{
		client: client,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (k *RedisKV) key(raw string) string {
	return k.prefix + raw
}

// ttlArg renders defaultTTL in whole seconds, rounding sub-second TTLs up to 1.
func (k *RedisKV) ttlArg() string {
	if k.defaultTTL <= 0 {
		return ""
	}
	ttl := int64(k.defaultTTL / time.Second)
	if ttl <= 0 {
		ttl = 1
	}
	return strconv.FormatInt(ttl, 10)
}

// AtomicGet implements db.KV.AtomicGet. It returns []byte, or (nil, nil) for a missing key.
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	fullKey := k.key(key)

	var res rueidis.RedisResult
	if k.enableClientCache && k.defaultTTL > 0 {
		res = k.client.DoCache(ctx, k.client.B().Get().Key(fullKey).Cache(), k.defaultTTL)
	} else {
		res = k.client.Do(ctx, k.client.B().Get().Key(fullKey).Build())
	}

	bs, err := res.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: AtomicGet %q failed: %w", key, err)
	}

	return bs, nil
}

// AtomicSet implements db.KV.AtomicSet. It returns the previous value as []byte, or nil.
func (k *RedisKV) AtomicSet(ctx context.Context, key string, value any) (any, error) {
	serialized, err := encodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("redis kv: encode value for key %q: %w", key, err)
	}

	res := luaAtomicSet.Exec(ctx, k.client, []string{k.key(key)}, []string{serialized, k.ttlArg()})
	bs, err := res.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: AtomicSet %q failed: %w", key, err)
	}

	return bs, nil
}

// SetIfNewer implements db.VersionedKV. value must be a JSON object carrying
// field as a number.
func (k *RedisKV) SetIfNewer(ctx context.Context, key string, value any, field string, version int64) (bool, error) {
	serialized, err := encodeValue(value)
	if err != nil {
		return false, fmt.Errorf("redis kv: encode value for key %q: %w", key, err)
	}

	args := []string{serialized, k.ttlArg(), field, strconv.FormatInt(version, 10)}
	stored, err := luaSetIfNewer.Exec(ctx, k.client, []string{k.key(key)}, args).AsInt64()
	if err != nil {
		return false, fmt.Errorf("redis kv: SetIfNewer %q failed: %w", key, err)
	}
	return stored == 1, nil
}

// HealthCheck is a small helper to be used by readiness/liveness probes.
func (k *RedisKV) HealthCheck(ctx context.Context) error {
	return k.client.Do(ctx, k.client.B().Ping().Build()).Error()
}

// encodeValue serializes a value into a Redis string: strings and []byte as-is,
// everything else as JSON.
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("redis kv: nil values are not allowed")
	case string:
		return x, nil
	case []byte:
		return rueidis.BinaryString(x), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return rueidis.BinaryString(b), nil
	}
}
