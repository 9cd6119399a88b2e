package bot

import (
	"context"
	"testing"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinker_Link(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	linker := NewLinker(store)

	_, err := store.CreateUser(ctx, 42, "ProPlayer", "")
	require.NoError(t, err)
	token, err := store.CreateVerifyToken(ctx, 42)
	require.NoError(t, err)

	_, err = linker.Link(ctx, "555", "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = linker.Link(ctx, "555", "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)

	user, err := linker.Link(ctx, "555", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.AccountID)
	assert.Equal(t, "555", user.TelegramChatID)
	assert.Empty(t, user.TelegramVerifyToken)

	_, err = store.AccountIDByVerifyToken(ctx, token)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLinker_LinkMovesChat(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	linker := NewLinker(store)

	for _, id := range []int64{1, 2} {
		_, err := store.CreateUser(ctx, id, "Player", "")
		require.NoError(t, err)
	}

	first, err := store.CreateVerifyToken(ctx, 1)
	require.NoError(t, err)
	_, err = linker.Link(ctx, "555", first)
	require.NoError(t, err)

	second, err := store.CreateVerifyToken(ctx, 2)
	require.NoError(t, err)
	_, err = linker.Link(ctx, "555", second)
	require.NoError(t, err)

	previous, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.False(t, previous.Linked())

	owner, err := store.GetUserByChatID(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, int64(2), owner.AccountID)
}

func TestLinker_TokenOfDeletedAccount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	token, err := store.CreateVerifyToken(ctx, 99)
	require.NoError(t, err)

	_, err = NewLinker(store).Link(ctx, "555", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLinker_Unlink(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	linker := NewLinker(store)

	_, err := linker.Unlink(ctx, "555")
	assert.ErrorIs(t, err, ErrNotLinked)

	user, err := store.CreateUser(ctx, 42, "ProPlayer", "")
	require.NoError(t, err)
	user.TelegramChatID = "555"
	require.NoError(t, store.UpdateUser(ctx, user))
	require.NoError(t, store.AdvanceWatermark(ctx, 42, 42, 100))

	unlinked, err := linker.Unlink(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, int64(42), unlinked.AccountID)

	stored, err := store.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, stored.TelegramChatID)
	assert.Equal(t, int64(100), stored.LastMatchID)
}
