package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/huntlog/internal/client/config"
)

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "huntlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='metadata'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "metadata", name)

	// applying twice is a no-op
	require.NoError(t, RunMigrations(ctx, db))
}

func TestOpenStorage_Backends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "sqlite", cfg: config.Config{StorageBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "s.db")}},
		{name: "redis", cfg: config.Config{StorageBackend: config.BackendRedis, RedisAddr: mr.Addr()}},
		{name: "memory", cfg: config.Config{StorageBackend: config.BackendMemory}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := OpenStorage(ctx, &tt.cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })

			require.NoError(t, st.Metadata.Set(ctx, "k", []byte("v")))
			v, err := st.Metadata.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), v)
		})
	}
}

func TestOpenStorage_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := OpenStorage(ctx, &config.Config{StorageBackend: "etcd"})
	require.ErrorIs(t, err, ErrUnknownBackend)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	_, err = OpenStorage(ctx, &config.Config{StorageBackend: config.BackendRedis, RedisAddr: addr})
	require.ErrorIs(t, err, ErrUnavailable)
}
