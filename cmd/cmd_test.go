package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"git.skobk.in/skobkin/dota2-notify-bot/config"
	"git.skobk.in/skobkin/dota2-notify-bot/db"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { setLogLevel(false, false) })

	assert.Equal(t, slog.LevelWarn, setLogLevel(false, false))
	assert.Equal(t, slog.LevelInfo, setLogLevel(true, false))
	assert.Equal(t, slog.LevelDebug, setLogLevel(false, true))
	assert.Equal(t, slog.LevelDebug, setLogLevel(true, true))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	setLogLevel(false, false)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}

func TestOpenStore_SQLite(t *testing.T) {
	store, err := openStore(context.Background(), config.StorageConfig{
		Driver:       config.DriverSQLite,
		DatabasePath: filepath.Join(t.TempDir(), "cmd.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &storage.Storage{}, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.StorageConfig{Driver: "oracle"})
	assert.ErrorIs(t, err, db.ErrUnknownDriver)
}

func TestCommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "check")
	assert.NotNil(t, rootCmd.PersistentFlags().ShorthandLookup("v"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("vv"))
}
