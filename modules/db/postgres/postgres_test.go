package postgres

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	cfg := &PoolConfig{
		Host:         "db.internal",
		Port:         6432,
		User:         "brawler",
		Password:     "p@ss/word",
		Database:     "brawlers",
		SSLMode:      "require",
		PoolMaxConns: 7,
	}

	u, err := url.Parse(connString(cfg))
	require.NoError(t, err)

	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:6432", u.Host)
	assert.Equal(t, "/brawlers", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pw)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "7", u.Query().Get("pool_max_conns"))
}

func TestConnURL_OmitsPoolParams(t *testing.T) {
	u := connURL(&PoolConfig{Host: "localhost", Port: 5432, User: "u", Database: "d", PoolMaxConns: 3})
	assert.Empty(t, u.Query().Get("pool_max_conns"))
	assert.Empty(t, u.Query().Get("sslmode"))
}

func TestMigrate_WithoutSource(t *testing.T) {
	p := &PostgresConnectionPool{}
	assert.ErrorIs(t, p.MigrateUp(), ErrNoMigrations)
	assert.ErrorIs(t, p.MigrateDown(), ErrNoMigrations)
}
