package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegohandler"
)

type contextKey string

const contextUserKey contextKey = "user"

// userFillMiddleware puts the user linked to the chat, if any, into the update context
func (b *Bot) userFillMiddleware(bot *telego.Bot, update telego.Update, next telegohandler.Handler) {
	ctx := update.Context()

	if update.Message != nil {
		chatID := strconv.FormatInt(update.Message.Chat.ID, 10)

		user, err := b.store.GetUserByChatID(ctx, chatID)
		switch {
		case err == nil:
			ctx = context.WithValue(ctx, contextUserKey, user)
		case errors.Is(err, storage.ErrNotFound):
			slog.Debug("bot: Chat is not linked", "chat_id", chatID)
		default:
			slog.Error("bot: Cannot get linked user from the storage", "error", err, "chat_id", chatID)
		}
	}

	update = update.WithContext(ctx)
	next(bot, update)
}

func userFromContext(ctx context.Context) (*storage.User, bool) {
	user, ok := ctx.Value(contextUserKey).(*storage.User)

	return user, ok && user != nil
}
