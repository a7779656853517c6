package etag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type versioned string

func (v versioned) V() string { return string(v) }

func TestETag(t *testing.T) {
	assert.Equal(t, `"v:7"`, ETag(versioned("7")))
	assert.True(t, Matches(ETag(versioned("7")), versioned("7")))
}

func TestParseETag(t *testing.T) {
	for _, in := range []string{"v:7", `"v:7"`, `W/"v:7"`, " v:7 "} {
		v, err := ParseETag(in)
		require.NoError(t, err, in)
		assert.Equal(t, "7", v, in)
	}

	for _, in := range []string{"", "7", "v:", `"x:7"`} {
		_, err := ParseETag(in)
		assert.ErrorIs(t, err, ErrInvalidETag, in)
	}
}

func TestMatches(t *testing.T) {
	obj := versioned("3")

	assert.True(t, Matches("v:3", obj))
	assert.True(t, Matches(`"v:1", "v:3"`, obj))
	assert.True(t, Matches("*", obj))
	assert.False(t, Matches("", obj))
	assert.False(t, Matches("v:2", obj))
	assert.False(t, Matches("garbage", obj))
}
