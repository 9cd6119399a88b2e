package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
)

func (b *Bot) startHandler(_ *telego.Bot, update telego.Update) {
	chatID := update.Message.Chat.ID
	slog.Info("bot: /start", "chat_id", chatID)

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 {
		b.reply(chatID, b.instructions())

		return
	}

	user, err := b.linker.Link(update.Context(), strconv.FormatInt(chatID, 10), args[1])
	if errors.Is(err, ErrInvalidToken) {
		b.reply(chatID, "This link code is invalid or was already used. Get a new one on the notifications page.")

		return
	}
	if err != nil {
		slog.Error("bot: Failed to link chat", "error", err, "chat_id", chatID)
		b.reply(chatID, "Error: Database error. Try again later.")

		return
	}

	b.reply(chatID, fmt.Sprintf(
		"Linked to %s. Match notifications for you and the friends you follow will be sent here. Send /stop to unlink.",
		user.Name,
	))
}

func (b *Bot) stopHandler(_ *telego.Bot, update telego.Update) {
	chatID := update.Message.Chat.ID
	slog.Info("bot: /stop", "chat_id", chatID)

	user, err := b.linker.Unlink(update.Context(), strconv.FormatInt(chatID, 10))
	if errors.Is(err, ErrNotLinked) {
		b.reply(chatID, "This chat is not linked to any account.")

		return
	}
	if err != nil {
		slog.Error("bot: Failed to unlink chat", "error", err, "chat_id", chatID)
		b.reply(chatID, "Error: Database error. Try again later.")

		return
	}

	b.reply(chatID, fmt.Sprintf("Notifications for %s are disabled. Link again from the notifications page.", user.Name))
}

func (b *Bot) helpHandler(_ *telego.Bot, update telego.Update) {
	chatID := update.Message.Chat.ID
	slog.Debug("bot: help", "chat_id", chatID)

	if user, ok := userFromContext(update.Context()); ok {
		b.reply(chatID, fmt.Sprintf(
			"This chat receives match notifications for %s.\n/stop - stop notifications",
			user.Name,
		))

		return
	}

	b.reply(chatID, b.instructions())
}

func (b *Bot) instructions() string {
	text := "Instructions:\n" +
		"1. Sign in with Steam on the website and follow some friends.\n" +
		"2. Open the notifications page and press the Telegram link.\n" +
		"3. The bot will send you a message after every finished match."
	if b.webURL != "" {
		text += "\n\nWebsite: " + b.webURL
	}

	return text
}
