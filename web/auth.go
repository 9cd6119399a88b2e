package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"git.skobk.in/skobkin/dota2-notify-bot/steam"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/gin-gonic/gin"
)

// Login redirects to the Steam OpenID sign-in page
func (h *Handler) Login(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, h.steam.LoginURL(h.opts.PublicBaseURL))
}

// SteamCallback verifies the OpenID assertion, registers first-time users and starts a session
func (h *Handler) SteamCallback(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	params := c.Request.URL.Query()
	if !h.steam.ValidateAuthRequest(ctx, params) {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "steam authentication failed"})
		return
	}

	steamID, err := steam.ClaimedSteamID(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid steam id"})
		return
	}

	accountID := steam.ToAccountID(steamID)

	_, err = h.store.GetUser(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		err = h.register(ctx, steamID)
	}
	if err != nil {
		slog.Error("web: Failed to sign in user", "error", err, "steam_id", steamID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "sign in failed"})
		return
	}

	token, err := h.sessions.Issue(steamID)
	if err != nil {
		slog.Error("web: Failed to issue session", "error", err, "steam_id", steamID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "sign in failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(h.sessions.TTL().Seconds()), "/", "", h.opts.CookieSecure, true)

	slog.Info("web: User signed in", "steam_id", steamID, "account_id", accountID)

	c.Redirect(http.StatusTemporaryRedirect, "/")
}

// Logout drops the session cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.opts.CookieSecure, true)

	c.Redirect(http.StatusTemporaryRedirect, "/")
}

func (h *Handler) register(ctx context.Context, steamID int64) error {
	accountID := steam.ToAccountID(steamID)

	token, err := h.store.CreateVerifyToken(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}

	if _, err := h.store.CreateUser(ctx, accountID, h.displayName(ctx, steamID), token); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("web: New user registered", "steam_id", steamID, "account_id", accountID)

	return nil
}

// displayName falls back to a generated name when Steam cannot be asked
func (h *Handler) displayName(ctx context.Context, steamID int64) string {
	players, err := h.steam.PlayerSummaries(ctx, []int64{steamID})
	if err != nil {
		slog.Warn("web: Failed to get player summary", "error", err, "steam_id", steamID)
	}
	for _, player := range players {
		if player.SteamID == steamIDString(steamID) && player.PersonaName != "" {
			return player.PersonaName
		}
	}

	return "User" + steamIDString(steamID)
}
