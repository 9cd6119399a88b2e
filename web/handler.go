package web

import (
	"context"
	"net/url"
	"time"

	"git.skobk.in/skobkin/dota2-notify-bot/opendota"
	"git.skobk.in/skobkin/dota2-notify-bot/steam"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"
)

const requestTimeout = 10 * time.Second

type Store interface {
	Ping(ctx context.Context) error

	AllUsers(ctx context.Context) ([]storage.User, error)
	GetUser(ctx context.Context, accountID int64) (*storage.User, error)
	CreateUser(ctx context.Context, accountID int64, name, verifyToken string) (*storage.User, error)
	UpdateUser(ctx context.Context, user *storage.User) error

	Friends(ctx context.Context, ownerID int64, followingOnly bool) ([]storage.Friend, error)
	GetFriend(ctx context.Context, ownerID, accountID int64) (*storage.Friend, error)
	UpsertFriend(ctx context.Context, friend *storage.Friend) error
	SetFollowing(ctx context.Context, ownerID, accountID int64, following bool) error

	CreateVerifyToken(ctx context.Context, accountID int64) (string, error)
	AccountIDByVerifyToken(ctx context.Context, token string) (int64, error)
}

type SteamClient interface {
	LoginURL(baseURL string) string
	ValidateAuthRequest(ctx context.Context, params url.Values) bool
	PlayerSummaries(ctx context.Context, steamIDs []int64) ([]steam.PlayerSummary, error)
	FriendList(ctx context.Context, steamID int64) ([]steam.Friend, error)
}

type MatchSource interface {
	PlayerMatches(ctx context.Context, accountID int64, limit int) ([]opendota.Match, error)
}

type Options struct {
	PublicBaseURL string
	BotUsername   string
	CookieSecure  bool
}

// Handler holds all HTTP handlers and their dependencies
type Handler struct {
	store    Store
	steam    SteamClient
	matches  MatchSource
	sessions *Sessions
	opts     Options
}

func NewHandler(store Store, steamClient SteamClient, matches MatchSource, sessions *Sessions, opts Options) *Handler {
	return &Handler{
		store:    store,
		steam:    steamClient,
		matches:  matches,
		sessions: sessions,
		opts:     opts,
	}
}
