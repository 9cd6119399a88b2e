package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"github.com/valyala/fasthttp"
)

// longPollTimeout is the server side wait of getUpdates in telego
const longPollTimeout = 8 * time.Second

var (
	ErrGetMe          = errors.New("cannot retrieve api user")
	ErrUpdatesChannel = errors.New("cannot get updates channel")
	ErrHandlerInit    = errors.New("cannot initialize handler")
)

// Store is the part of the user store the bot needs
type Store interface {
	GetUser(ctx context.Context, accountID int64) (*storage.User, error)
	GetUserByChatID(ctx context.Context, chatID string) (*storage.User, error)
	UpdateUser(ctx context.Context, user *storage.User) error
	AccountIDByVerifyToken(ctx context.Context, token string) (int64, error)
	DeleteVerifyToken(ctx context.Context, token string) error
}

type messageSender interface {
	SendMessage(params *telego.SendMessageParams) (*telego.Message, error)
}

type Bot struct {
	api    *telego.Bot
	sender messageSender
	store  Store
	linker *Linker
	webURL string

	retryUnit time.Duration
}

// NewAPI creates a Telegram client with bounded requests.
// The limit is requestTimeout plus the long polling wait so getUpdates is not cut short.
func NewAPI(token string, requestTimeout time.Duration) (*telego.Bot, error) {
	timeout := clientTimeout(requestTimeout)

	return telego.NewBot(token,
		telego.WithDefaultLogger(false, true),
		telego.WithFastHTTPClient(&fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
	)
}

func clientTimeout(requestTimeout time.Duration) time.Duration {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return requestTimeout + longPollTimeout
}

// NewBot wraps a telego client. webURL is shown to users who need to get a link code.
func NewBot(api *telego.Bot, store Store, webURL string) *Bot {
	b := newBot(api, store, webURL)
	b.api = api

	return b
}

func newBot(sender messageSender, store Store, webURL string) *Bot {
	return &Bot{
		sender:    sender,
		store:     store,
		linker:    NewLinker(store),
		webURL:    webURL,
		retryUnit: time.Second,
	}
}

// Run handles updates via long polling until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	botUser, err := b.api.GetMe()
	if err != nil {
		slog.Error("bot: Cannot retrieve api user", "error", err)

		return ErrGetMe
	}

	slog.Info("bot: Running api as",
		"id", botUser.ID,
		"username", botUser.Username,
		"name", botUser.FirstName,
		"is_bot", botUser.IsBot,
	)

	updates, err := b.api.UpdatesViaLongPolling(nil)
	if err != nil {
		slog.Error("bot: Cannot get update channel", "error", err)

		return ErrUpdatesChannel
	}

	bh, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		b.api.StopLongPolling()
		slog.Error("bot: Cannot initialize bot handler", "error", err)

		return ErrHandlerInit
	}

	defer bh.Stop()
	defer b.api.StopLongPolling()

	bh.Use(b.userFillMiddleware)

	bh.Handle(b.startHandler, th.CommandEqual("start"))
	bh.Handle(b.stopHandler, th.CommandEqual("stop"))
	bh.Handle(b.helpHandler, th.AnyMessage())

	go bh.Start()

	<-ctx.Done()
	slog.Info("bot: Stopping long polling")

	return nil
}
