package storage

import "context"

// Store is the method set shared by every storage backend
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	AllUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, accountID int64) (*User, error)
	GetUserByChatID(ctx context.Context, chatID string) (*User, error)
	CreateUser(ctx context.Context, accountID int64, name, verifyToken string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	Friends(ctx context.Context, ownerID int64, followingOnly bool) ([]Friend, error)
	GetFriend(ctx context.Context, ownerID, accountID int64) (*Friend, error)
	UpsertFriend(ctx context.Context, friend *Friend) error
	SetFollowing(ctx context.Context, ownerID, accountID int64, following bool) error
	AdvanceWatermark(ctx context.Context, ownerID, accountID, matchID int64) error

	CreateVerifyToken(ctx context.Context, accountID int64) (string, error)
	AccountIDByVerifyToken(ctx context.Context, token string) (int64, error)
	DeleteVerifyToken(ctx context.Context, token string) error
}

var _ Store = (*Storage)(nil)
