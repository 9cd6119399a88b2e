package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"
	"git.skobk.in/skobkin/dota2-notify-bot/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SQLite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := storage.New("sqlite", filepath.Join(t.TempDir(), "test.sqlite"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		return s
	})
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := storage.New("oracle", "whatever")
	assert.Error(t, err)
}

func TestStorage_SQLite_TokenCollision(t *testing.T) {
	s, err := storage.New("sqlite", filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testTokenCollision(t, s)
}

// testTokenCollision makes the first generated token clash with an existing one
func testTokenCollision(t *testing.T, s *storage.Storage) {
	ctx := context.Background()

	tokens := []string{"taken", "taken", "fresh"}
	storage.SetTokenSource(t, func() string {
		next := tokens[0]
		tokens = tokens[1:]
		return next
	})

	taken, err := s.CreateVerifyToken(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "taken", taken)

	token, err := s.CreateVerifyToken(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)

	owner, err := s.AccountIDByVerifyToken(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(6), owner)

	owner, err = s.AccountIDByVerifyToken(ctx, "taken")
	require.NoError(t, err)
	assert.Equal(t, int64(5), owner)
}
