package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV struct {
	data map[string][]byte
	err  error
}

func (m *mapKV) AtomicGet(_ context.Context, key string) (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *mapKV) AtomicSet(_ context.Context, key string, value any) (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	prev, ok := m.data[key]
	m.data[key] = value.([]byte)
	if !ok {
		return nil, nil
	}
	return prev, nil
}

type item struct {
	Name  string
	Count int
}

func TestJSONKV_SetGet(t *testing.T) {
	ctx := context.Background()
	kv := NewJSONKV[item](&mapKV{data: map[string][]byte{}})

	missing, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, missing)

	prev, err := kv.Set(ctx, "a", item{Name: "one", Count: 1})
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = kv.Set(ctx, "a", item{Name: "two", Count: 2})
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, item{Name: "one", Count: 1}, *prev)

	got, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item{Name: "two", Count: 2}, *got)
}

func TestJSONKV_CorruptValue(t *testing.T) {
	kv := NewJSONKV[item](&mapKV{data: map[string][]byte{"a": []byte("{not json")}})

	_, err := kv.Get(context.Background(), "a")
	assert.Error(t, err)
}

func TestJSONKV_PropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")
	kv := NewJSONKV[item](&mapKV{data: map[string][]byte{}, err: boom})

	_, err := kv.Get(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
	_, err = kv.Set(context.Background(), "a", item{})
	assert.ErrorIs(t, err, boom)
}

// versionedMapKV refuses writes older than the last stored version.
type versionedMapKV struct {
	mapKV
	field   string
	version int64
}

func (m *versionedMapKV) SetIfNewer(ctx context.Context, key string, value any, field string, version int64) (bool, error) {
	if _, ok := m.data[key]; ok && m.version > version {
		return false, nil
	}
	m.field, m.version = field, version
	_, err := m.AtomicSet(ctx, key, value)
	return err == nil, err
}

func TestJSONKV_SetIfNewer(t *testing.T) {
	ctx := context.Background()
	store := &versionedMapKV{mapKV: mapKV{data: map[string][]byte{}}}
	kv := NewJSONKV[item](store)

	stored, err := kv.SetIfNewer(ctx, "a", item{Name: "two", Count: 2}, "Count", 2)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "Count", store.field)

	stored, err = kv.SetIfNewer(ctx, "a", item{Name: "one", Count: 1}, "Count", 1)
	require.NoError(t, err)
	assert.False(t, stored)

	got, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "two", got.Name)
}

func TestJSONKV_SetIfNewerNeedsVersionedStore(t *testing.T) {
	kv := NewJSONKV[item](&mapKV{data: map[string][]byte{}})

	_, err := kv.SetIfNewer(context.Background(), "a", item{}, "Count", 1)
	assert.ErrorIs(t, err, ErrUnversioned)
}
