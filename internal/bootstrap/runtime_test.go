package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"look/internal/cache"
	"look/internal/config"
	"look/internal/database"
	"look/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:     "sqlite",
		DBPath:       filepath.Join(t.TempDir(), "look.db"),
		DBSchemaMode: "auto",
		Env:          "test",
	}
}

func TestInitRuntime_SeedsAndSkipsRedis(t *testing.T) {
	cfg := sqliteConfig(t)
	ctx := context.Background()

	db, rdb, err := InitRuntime(ctx, cfg, Options{Seed: true, SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	assert.Nil(t, rdb)

	var roles, users int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 3, roles)
	assert.EqualValues(t, 3, users)
}

func TestInitRuntime_RolesWithoutSeed(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.RedisURL = ""

	db, rdb, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	assert.Nil(t, rdb)

	var roles, users int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 3, roles)
	assert.Zero(t, users)
}

func TestInitRuntime_ConnectsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = mr.Addr()
	t.Cleanup(func() { cache.SetClient(nil) })

	db, rdb, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close(db)
		if rdb != nil {
			_ = rdb.Close()
		}
	})
	require.NotNil(t, rdb)
	assert.NoError(t, rdb.Ping(context.Background()).Err())
}
