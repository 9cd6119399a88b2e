package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"git.skobk.in/skobkin/dota2-notify-bot/steam"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/gin-gonic/gin"
)

// Notifications shows whether a Telegram chat is linked and how to link one
func (h *Handler) Notifications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}

	response := notificationsResponse{
		SteamID:  steamIDString(GetSteamID(c)),
		Name:     user.Name,
		Verified: user.Linked(),
	}

	if !response.Verified {
		token, err := h.pendingToken(ctx, user)
		if err != nil {
			slog.Error("web: Failed to prepare verification token", "error", err, "account_id", user.AccountID)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to prepare link code"})
			return
		}

		response.Token = token
		response.Link = h.telegramLink(token)
	}

	c.JSON(http.StatusOK, response)
}

// ResetNotifications unlinks the chat and issues a fresh link code
func (h *Handler) ResetNotifications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}

	if err := h.renewToken(ctx, user, true); err != nil {
		slog.Error("web: Failed to reset notifications", "error", err, "account_id", user.AccountID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to reset notifications"})
		return
	}

	slog.Info("web: Notifications reset", "account_id", user.AccountID)

	c.Redirect(http.StatusSeeOther, "/notifications")
}

// pendingToken returns the user's link code, replacing one that is missing or belongs to someone else
func (h *Handler) pendingToken(ctx context.Context, user *storage.User) (string, error) {
	if user.TelegramVerifyToken != "" {
		owner, err := h.store.AccountIDByVerifyToken(ctx, user.TelegramVerifyToken)
		if err == nil && owner == user.AccountID {
			return user.TelegramVerifyToken, nil
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
	}

	if err := h.renewToken(ctx, user, false); err != nil {
		return "", err
	}

	return user.TelegramVerifyToken, nil
}

func (h *Handler) renewToken(ctx context.Context, user *storage.User, unlink bool) error {
	token, err := h.store.CreateVerifyToken(ctx, user.AccountID)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}

	user.TelegramVerifyToken = token
	if unlink {
		user.TelegramChatID = ""
	}

	if err := h.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (h *Handler) telegramLink(token string) string {
	if h.opts.BotUsername == "" {
		return ""
	}

	return fmt.Sprintf("https://t.me/%s?start=%s", h.opts.BotUsername, url.QueryEscape(token))
}

// currentUser loads the signed-in user or writes the error response
func (h *Handler) currentUser(ctx context.Context, c *gin.Context) (*storage.User, bool) {
	accountID := steam.ToAccountID(GetSteamID(c))

	user, err := h.store.GetUser(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unknown user, sign in again"})
		return nil, false
	}
	if err != nil {
		slog.Error("web: Failed to get current user", "error", err, "account_id", accountID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load user"})
		return nil, false
	}

	return user, true
}
