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

// summariesBatch is the GetPlayerSummaries limit of IDs per call
const summariesBatch = 100

// ListFriends returns the Steam friends of the signed-in user with their follow state
func (h *Handler) ListFriends(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	steamID := GetSteamID(c)
	accountID := steam.ToAccountID(steamID)

	steamFriends, err := h.steam.FriendList(ctx, steamID)
	if err != nil {
		slog.Error("web: Failed to get Steam friends", "error", err, "steam_id", steamID)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to get friends from Steam"})
		return
	}

	ids := make([]int64, 0, len(steamFriends))
	for _, friend := range steamFriends {
		id, err := strconv.ParseInt(friend.SteamID, 10, 64)
		if err != nil {
			slog.Warn("web: Skipping malformed Steam friend ID", "steam_id", friend.SteamID)
			continue
		}
		ids = append(ids, id)
	}

	summaries := h.summaries(ctx, ids)

	stored, err := h.store.Friends(ctx, accountID, false)
	if err != nil {
		slog.Error("web: Failed to get stored friends", "error", err, "account_id", accountID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load friends"})
		return
	}

	following := make(map[int64]bool, len(stored))
	for _, friend := range stored {
		following[friend.AccountID] = friend.Following
	}

	response := make([]friendResponse, 0, len(ids))
	for _, id := range ids {
		friendAccountID := steam.ToAccountID(id)
		item := friendResponse{
			AccountID: friendAccountID,
			SteamID:   steamIDString(id),
			Name:      "User" + steamIDString(id),
			Following: following[friendAccountID],
		}
		if summary, ok := summaries[steamIDString(id)]; ok {
			item.Name = summary.PersonaName
			item.Avatar = summary.Avatar
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}

// Follow starts notifications about a player. Following yourself toggles your own matches.
func (h *Handler) Follow(c *gin.Context) {
	h.setFollowing(c, true)
}

// Unfollow stops notifications about a player, keeping the relation and its watermark
func (h *Handler) Unfollow(c *gin.Context) {
	h.setFollowing(c, false)
}

func (h *Handler) setFollowing(c *gin.Context, following bool) {
	target, err := strconv.ParseInt(c.Param("account_id"), 10, 64)
	if err != nil || target <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}

	if target == user.AccountID {
		user.Following = following
		if err := h.store.UpdateUser(ctx, user); err != nil {
			slog.Error("web: Failed to update self following", "error", err, "account_id", user.AccountID)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to update following"})
			return
		}

		c.JSON(http.StatusOK, friendResponse{
			AccountID: user.AccountID,
			SteamID:   steamIDString(steam.ToSteamID(user.AccountID)),
			Name:      user.Name,
			Following: following,
		})
		return
	}

	friend, err := h.store.GetFriend(ctx, user.AccountID, target)
	switch {
	case errors.Is(err, storage.ErrNotFound) && following:
		friend, err = h.createFriend(ctx, user.AccountID, target)
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not following this player"})
		return
	case err == nil:
		err = h.store.SetFollowing(ctx, user.AccountID, target, following)
		friend.Following = following
	}
	if err != nil {
		slog.Error("web: Failed to update following", "error", err,
			"owner_id", user.AccountID, "account_id", target, "following", following)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to update following"})
		return
	}

	slog.Info("web: Following changed", "owner_id", user.AccountID, "account_id", target, "following", following)

	if !following {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, friendResponse{
		AccountID: friend.AccountID,
		SteamID:   steamIDString(steam.ToSteamID(friend.AccountID)),
		Name:      friend.Name,
		Following: friend.Following,
	})
}

// createFriend stores a new relation. Its watermark starts at the latest match so old games are not announced.
func (h *Handler) createFriend(ctx context.Context, ownerID, accountID int64) (*storage.Friend, error) {
	friend := &storage.Friend{
		OwnerID:   ownerID,
		AccountID: accountID,
		Name:      h.displayName(ctx, steam.ToSteamID(accountID)),
		Following: true,
	}

	matches, err := h.matches.PlayerMatches(ctx, accountID, 1)
	if err != nil {
		slog.Warn("web: Failed to seed watermark, the latest match will be announced", "error", err, "account_id", accountID)
	} else if len(matches) > 0 {
		friend.LastMatchID = matches[0].MatchID
	}

	if err := h.store.UpsertFriend(ctx, friend); err != nil {
		return nil, err
	}

	return friend, nil
}

// summaries looks up Steam profiles in batches. Failed batches are skipped.
func (h *Handler) summaries(ctx context.Context, ids []int64) map[string]steam.PlayerSummary {
	result := make(map[string]steam.PlayerSummary, len(ids))

	for start := 0; start < len(ids); start += summariesBatch {
		end := min(start+summariesBatch, len(ids))

		players, err := h.steam.PlayerSummaries(ctx, ids[start:end])
		if err != nil {
			slog.Warn("web: Failed to get player summaries", "error", err, "count", end-start)
			continue
		}
		for _, player := range players {
			result[player.SteamID] = player
		}
	}

	return result
}
