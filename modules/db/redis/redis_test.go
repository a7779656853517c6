package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithKeyPrefix(t *testing.T) {
	for in, want := range map[string]string{
		"":               "42",
		"brawler:cache":  "brawler:cache:42",
		"brawler:cache:": "brawler:cache:42",
		"  brawler:x  ":  "brawler:x:42",
	} {
		kv := NewRedisKV(nil, WithKeyPrefix(in))
		assert.Equal(t, want, kv.key("42"), "prefix %q", in)
	}
}

func TestTTLArg(t *testing.T) {
	assert.Equal(t, "", NewRedisKV(nil).ttlArg())
	assert.Equal(t, "1", NewRedisKV(nil, WithDefaultTTL(200*time.Millisecond)).ttlArg())
	assert.Equal(t, "300", NewRedisKV(nil, WithDefaultTTL(5*time.Minute)).ttlArg())
}

func TestEncodeValue(t *testing.T) {
	_, err := encodeValue(nil)
	assert.Error(t, err)

	s, err := encodeValue("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	s, err = encodeValue([]byte{'a', 'b'})
	require.NoError(t, err)
	assert.Equal(t, "ab", s)

	s, err = encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, s)
}

func TestClientOption(t *testing.T) {
	_, err := clientOption(RedisConfig{})
	assert.Error(t, err)

	_, err = clientOption(RedisConfig{URL: "redis://localhost:6379/0", RequireTLS: true})
	assert.Error(t, err)

	opt, err := clientOption(RedisConfig{
		URL:                    "redis://:pw@localhost:6379/0",
		ClientName:             "brawler-api",
		ClientTrackingPrefixes: []string{"brawler:cache:", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:6379"}, opt.InitAddress)
	assert.Equal(t, "brawler-api", opt.ClientName)
	assert.Equal(t, []string{"PREFIX", "brawler:cache:", "BCAST", "OPTIN"}, opt.ClientTrackingOptions)
}
