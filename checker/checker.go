package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"git.skobk.in/skobkin/dota2-notify-bot/opendota"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"
)

// DefaultCallTimeout bounds every external call made during a sweep
const DefaultCallTimeout = 10 * time.Second

// ErrSweepInProgress is returned when a sweep is requested while another one runs
var ErrSweepInProgress = errors.New("sweep already in progress")

type UserStore interface {
	AllUsers(ctx context.Context) ([]storage.User, error)
	Friends(ctx context.Context, ownerID int64, followingOnly bool) ([]storage.Friend, error)
	AdvanceWatermark(ctx context.Context, ownerID, accountID, matchID int64) error
}

type MatchSource interface {
	PlayerMatches(ctx context.Context, accountID int64, limit int) ([]opendota.Match, error)
}

type Notifier interface {
	Send(ctx context.Context, chatID string, text string) error
}

// Report summarizes one sweep
type Report struct {
	Users    int
	Targets  int
	Notified int
	Failed   int
}

// target is a player whose latest match is compared against a watermark
type target struct {
	accountID int64
	name      string
	watermark int64
}

type Checker struct {
	store          UserStore
	matches        MatchSource
	notifier       Notifier
	detailsBaseURL string
	callTimeout    time.Duration

	running atomic.Bool
}

// New creates a Checker. Empty detailsBaseURL and zero callTimeout select the defaults.
func New(store UserStore, matches MatchSource, notifier Notifier, detailsBaseURL string, callTimeout time.Duration) *Checker {
	if detailsBaseURL == "" {
		detailsBaseURL = DefaultDetailsBaseURL
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &Checker{
		store:          store,
		matches:        matches,
		notifier:       notifier,
		detailsBaseURL: detailsBaseURL,
		callTimeout:    callTimeout,
	}
}

// Sweep checks every followed player of every user once.
// Failures of single targets are logged and counted, only a failure to list users is returned.
func (c *Checker) Sweep(ctx context.Context) (Report, error) {
	var report Report

	if !c.running.CompareAndSwap(false, true) {
		slog.Warn("checker: Previous sweep is still running, skipping")
		return report, ErrSweepInProgress
	}
	defer c.running.Store(false)

	started := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	users, err := c.store.AllUsers(callCtx)
	cancel()
	if err != nil {
		slog.Error("checker: Failed to get users", "error", err)
		return report, fmt.Errorf("failed to get users: %w", err)
	}

	report.Users = len(users)
	if len(users) == 0 {
		slog.Debug("checker: No users to check")
		return report, nil
	}

	for i := range users {
		c.checkUser(ctx, &users[i], &report)
	}

	slog.Info("checker: Sweep finished",
		"users", report.Users,
		"targets", report.Targets,
		"notified", report.Notified,
		"failed", report.Failed,
		"took", time.Since(started),
	)

	return report, nil
}

func (c *Checker) checkUser(ctx context.Context, user *storage.User, report *Report) {
	if user.Following {
		c.checkTarget(ctx, user, target{accountID: user.AccountID, name: user.Name, watermark: user.LastMatchID}, report)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	friends, err := c.store.Friends(callCtx, user.AccountID, true)
	cancel()
	if err != nil {
		slog.Error("checker: Failed to get followed friends", "error", err, "account_id", user.AccountID)
		report.Failed++
		return
	}

	for _, friend := range friends {
		c.checkTarget(ctx, user, target{accountID: friend.AccountID, name: friend.Name, watermark: friend.LastMatchID}, report)
	}
}

func (c *Checker) checkTarget(ctx context.Context, user *storage.User, t target, report *Report) {
	report.Targets++

	notified, err := c.processTarget(ctx, user, t)
	if notified {
		report.Notified++
	}
	if err != nil {
		report.Failed++
		slog.Error("checker: Failed to check target", "error", err,
			"owner_id", user.AccountID, "account_id", t.accountID)
	}
}

// processTarget sends at most one notification and then moves the watermark.
// A failed watermark write after a successful send leads to a repeated notification next sweep.
func (c *Checker) processTarget(ctx context.Context, user *storage.User, t target) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	matches, err := c.matches.PlayerMatches(callCtx, t.accountID, 1)
	cancel()
	if err != nil {
		return false, fmt.Errorf("failed to get matches: %w", err)
	}

	if len(matches) == 0 {
		slog.Debug("checker: No matches found", "account_id", t.accountID)
		return false, nil
	}

	latest := matches[0]
	if latest.MatchID == t.watermark {
		slog.Debug("checker: No new matches", "account_id", t.accountID, "match_id", latest.MatchID)
		return false, nil
	}

	slog.Info("checker: New match detected",
		"owner_id", user.AccountID, "account_id", t.accountID,
		"match_id", latest.MatchID, "previous_match_id", t.watermark)

	notified := false
	if user.Linked() {
		text := FormatNotification(t.name, latest, c.detailsBaseURL)

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		err := c.notifier.Send(callCtx, user.TelegramChatID, text)
		cancel()
		if err != nil {
			return false, fmt.Errorf("failed to send notification: %w", err)
		}
		notified = true
	} else {
		slog.Debug("checker: User has no linked chat, notification suppressed", "owner_id", user.AccountID)
	}

	callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
	err = c.store.AdvanceWatermark(callCtx, user.AccountID, t.accountID, latest.MatchID)
	cancel()
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("checker: Target disappeared before watermark update",
			"owner_id", user.AccountID, "account_id", t.accountID)
		return notified, nil
	}
	if err != nil {
		return notified, fmt.Errorf("failed to advance watermark: %w", err)
	}

	return notified, nil
}
