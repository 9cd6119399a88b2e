package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

const tooManyRequests = 429

// Send delivers a plain text message. A rate limited send is retried once after the requested delay.
func (b *Bot) Send(ctx context.Context, chatID string, text string) error {
	message := tu.Message(chatIDFromString(chatID), text)

	err := b.sendMessage(ctx, message)
	if err == nil {
		slog.Debug("bot: Message sent successfully", "chat_id", chatID)
		return nil
	}

	retryAfter, limited := retryAfterSeconds(err)
	if !limited {
		slog.Error("bot: Failed to send message", "error", err, "chat_id", chatID, "text_length", len(text))
		return fmt.Errorf("failed to send message: %w", err)
	}

	slog.Debug("bot: API error", "error", err.Error())
	slog.Info("bot: Rate limit hit, waiting", "seconds", retryAfter)

	timer := time.NewTimer(time.Duration(retryAfter) * b.retryUnit)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limited and gave up waiting: %w", ctx.Err())
	case <-timer.C:
	}

	if err := b.sendMessage(ctx, message); err != nil {
		slog.Error("bot: Failed to send message after rate limit wait", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to send message after rate limit wait: %w", err)
	}

	slog.Info("bot: Message sent successfully after rate limit wait", "chat_id", chatID)

	return nil
}

// reply answers in a chat the update came from. Failures are only logged.
// sendMessage gives up when ctx is done. The request itself is bounded by the client timeouts.
func (b *Bot) sendMessage(ctx context.Context, message *telego.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := b.sender.SendMessage(message)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		slog.Warn("bot: Gave up waiting for Telegram", "error", ctx.Err())
		return ctx.Err()
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.SendMessage(tu.Message(tu.ID(chatID), text)); err != nil {
		slog.Error("bot: Cannot send reply message", "error", err, "chat_id", chatID)
	}
}

// retryAfterSeconds extracts the delay from a 429 answer
func retryAfterSeconds(err error) (int, bool) {
	var apiErr *ta.Error
	if errors.As(err, &apiErr) && apiErr.ErrorCode == tooManyRequests {
		if apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
			return apiErr.Parameters.RetryAfter, true
		}
		return 1, true
	}

	// Format: "telego: sendMessage(): api: 429 \"Too Many Requests: retry after 5\", migrate to chat ID: 0, retry after: 5"
	if strings.Contains(err.Error(), "Too Many Requests") {
		parts := strings.Split(err.Error(), "retry after: ")
		if len(parts) == 2 {
			var retryAfter int
			if _, _ = fmt.Sscanf(parts[1], "%d", &retryAfter); retryAfter > 0 {
				return retryAfter, true
			}
		}
	}

	return 0, false
}

// chatIDFromString accepts numeric chat IDs and @channel usernames
func chatIDFromString(chatID string) telego.ChatID {
	chatID = strings.TrimSpace(chatID)

	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return tu.ID(id)
	}

	return tu.Username(chatID)
}
