package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"
)

var (
	ErrInvalidToken = errors.New("invalid verification token")
	ErrNotLinked    = errors.New("chat is not linked")
)

// Linker connects Telegram chats to registered users
type Linker struct {
	store Store
}

func NewLinker(store Store) *Linker {
	return &Linker{store: store}
}

// Link consumes a verification token and makes chatID the user's notification destination.
// A chat can serve one account only, a previous owner of the chat is unlinked.
func (l *Linker) Link(ctx context.Context, chatID, token string) (*storage.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	accountID, err := l.store.AccountIDByVerifyToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	user, err := l.store.GetUser(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	previous, err := l.store.GetUserByChatID(ctx, chatID)
	switch {
	case err == nil && previous.AccountID != user.AccountID:
		previous.TelegramChatID = ""
		if err := l.store.UpdateUser(ctx, previous); err != nil {
			return nil, fmt.Errorf("failed to unlink previous user: %w", err)
		}
		slog.Info("bot: Chat moved to another account", "chat_id", chatID,
			"from_account_id", previous.AccountID, "to_account_id", user.AccountID)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to check chat owner: %w", err)
	}

	user.TelegramChatID = chatID
	user.TelegramVerifyToken = ""
	if err := l.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to link chat: %w", err)
	}

	if err := l.store.DeleteVerifyToken(ctx, token); err != nil {
		slog.Warn("bot: Failed to delete consumed verification token", "error", err, "account_id", accountID)
	}

	slog.Info("bot: Chat linked", "chat_id", chatID, "account_id", user.AccountID)

	return user, nil
}

// Unlink stops notifications to chatID
func (l *Linker) Unlink(ctx context.Context, chatID string) (*storage.User, error) {
	user, err := l.store.GetUserByChatID(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.TelegramChatID = ""
	if err := l.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to unlink chat: %w", err)
	}

	slog.Info("bot: Chat unlinked", "chat_id", chatID, "account_id", user.AccountID)

	return user, nil
}
