// Package storagetest holds the behaviour every storage backend must share
package storagetest

import (
	"context"
	"testing"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a backend. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Friends", func(t *testing.T) { testFriends(t, newStore(t)) })
	t.Run("AdvanceWatermark", func(t *testing.T) { testAdvanceWatermark(t, newStore(t)) })
	t.Run("UpdateUserKeepsWatermark", func(t *testing.T) { testUpdateUserKeepsWatermark(t, newStore(t)) })
	t.Run("UpdateMissingUser", func(t *testing.T) { testUpdateMissingUser(t, newStore(t)) })
	t.Run("VerifyTokens", func(t *testing.T) { testVerifyTokens(t, newStore(t)) })
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	users, err := s.AllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = s.GetUser(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	created, err := s.CreateUser(ctx, 42, "Test User", "token-1")
	require.NoError(t, err)
	assert.True(t, created.Following)
	assert.False(t, created.Linked())

	_, err = s.CreateUser(ctx, 7, "Another", "")
	require.NoError(t, err)

	users, err = s.AllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(7), users[0].AccountID)
	assert.Equal(t, int64(42), users[1].AccountID)

	user, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, "token-1", user.TelegramVerifyToken)

	user.TelegramChatID = "123456"
	user.TelegramVerifyToken = ""
	require.NoError(t, s.UpdateUser(ctx, user))

	byChat, err := s.GetUserByChatID(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, int64(42), byChat.AccountID)
	assert.True(t, byChat.Linked())
	assert.Empty(t, byChat.TelegramVerifyToken)

	_, err = s.GetUserByChatID(ctx, "  ")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byChat.TelegramChatID = ""
	require.NoError(t, s.UpdateUser(ctx, byChat))
	_, err = s.GetUserByChatID(ctx, "123456")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testFriends(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.CreateUser(ctx, 1, "Owner", "")
	require.NoError(t, err)

	require.NoError(t, s.UpsertFriend(ctx, &storage.Friend{OwnerID: 1, AccountID: 30, Name: "Third", Following: true, LastMatchID: 300}))
	require.NoError(t, s.UpsertFriend(ctx, &storage.Friend{OwnerID: 1, AccountID: 10, Name: "First", Following: true}))
	require.NoError(t, s.UpsertFriend(ctx, &storage.Friend{OwnerID: 1, AccountID: 20, Name: "Second", Following: false}))
	require.NoError(t, s.UpsertFriend(ctx, &storage.Friend{OwnerID: 2, AccountID: 10, Name: "First", Following: true}))

	all, err := s.Friends(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	followed, err := s.Friends(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, followed, 2)
	assert.Equal(t, int64(10), followed[0].AccountID)
	assert.Equal(t, int64(30), followed[1].AccountID)

	// soft unfollow keeps the record and its watermark
	require.NoError(t, s.SetFollowing(ctx, 1, 30, false))
	friend, err := s.GetFriend(ctx, 1, 30)
	require.NoError(t, err)
	assert.False(t, friend.Following)
	assert.Equal(t, int64(300), friend.LastMatchID)

	require.NoError(t, s.SetFollowing(ctx, 1, 30, true))
	friend, err = s.GetFriend(ctx, 1, 30)
	require.NoError(t, err)
	assert.True(t, friend.Following)

	assert.ErrorIs(t, s.SetFollowing(ctx, 1, 99, true), storage.ErrNotFound)

	_, err = s.GetFriend(ctx, 1, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	friend.Name = "Renamed"
	require.NoError(t, s.UpsertFriend(ctx, friend))
	friend, err = s.GetFriend(ctx, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", friend.Name)
}

func testAdvanceWatermark(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.CreateUser(ctx, 1, "Owner", "")
	require.NoError(t, err)
	require.NoError(t, s.UpsertFriend(ctx, &storage.Friend{OwnerID: 1, AccountID: 2, Name: "Friend", Following: true, LastMatchID: 7890}))

	require.NoError(t, s.AdvanceWatermark(ctx, 1, 2, 7891))
	friend, err := s.GetFriend(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7891), friend.LastMatchID)

	require.NoError(t, s.AdvanceWatermark(ctx, 1, 1, 5000))
	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), user.LastMatchID)

	assert.ErrorIs(t, s.AdvanceWatermark(ctx, 1, 3, 1), storage.ErrNotFound)
	assert.ErrorIs(t, s.AdvanceWatermark(ctx, 9, 9, 1), storage.ErrNotFound)
}

func testVerifyTokens(t *testing.T, s storage.Store) {
	ctx := context.Background()

	first, err := s.CreateVerifyToken(ctx, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	accountID, err := s.AccountIDByVerifyToken(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(42), accountID)

	second, err := s.CreateVerifyToken(ctx, 42)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// only the newest token maps to the account
	_, err = s.AccountIDByVerifyToken(ctx, first)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	other, err := s.CreateVerifyToken(ctx, 43)
	require.NoError(t, err)

	require.NoError(t, s.DeleteVerifyToken(ctx, second))
	_, err = s.AccountIDByVerifyToken(ctx, second)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	accountID, err = s.AccountIDByVerifyToken(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(43), accountID)
}

// a profile write with a copy loaded before the sweep moved the watermark must not move it back
func testUpdateUserKeepsWatermark(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.CreateUser(ctx, 42, "ProPlayer", "")
	require.NoError(t, err)

	stale, err := s.GetUser(ctx, 42)
	require.NoError(t, err)

	require.NoError(t, s.AdvanceWatermark(ctx, 42, 42, 9001))

	stale.TelegramChatID = "555"
	stale.Following = false
	require.NoError(t, s.UpdateUser(ctx, stale))

	user, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), user.LastMatchID)
	assert.Equal(t, "555", user.TelegramChatID)
	assert.False(t, user.Following)
}

func testUpdateMissingUser(t *testing.T, s storage.Store) {
	ctx := context.Background()

	err := s.UpdateUser(ctx, &storage.User{AccountID: 99, Name: "Ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetUser(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
