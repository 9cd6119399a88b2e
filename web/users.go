package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"git.skobk.in/skobkin/dota2-notify-bot/steam"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	users, err := h.store.AllUsers(ctx)
	if err != nil {
		slog.Error("web: Failed to get users", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load users"})
		return
	}

	response := make([]userResponse, len(users))
	for i := range users {
		response[i] = toUserResponse(&users[i])
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetUser(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.store.GetUser(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}
	if err != nil {
		slog.Error("web: Failed to get user", "error", err, "account_id", accountID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *storage.User) userResponse {
	return userResponse{
		AccountID: user.AccountID,
		SteamID:   steamIDString(steam.ToSteamID(user.AccountID)),
		Name:      user.Name,
		Linked:    user.Linked(),
		Following: user.Following,
	}
}
