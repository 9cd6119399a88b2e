package checker

import (
	"fmt"
	"strings"

	"git.skobk.in/skobkin/dota2-notify-bot/opendota"
)

// DefaultDetailsBaseURL is the match page prefix used in notifications
const DefaultDetailsBaseURL = "https://www.dotabuff.com"

// FormatDuration renders seconds as "1h 30m 30s" or "40m 0s" for matches under an hour
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}

	return fmt.Sprintf("%dm %ds", minutes, secs)
}

// FormatNotification builds the text sent about a finished match
func FormatNotification(name string, match opendota.Match, detailsBaseURL string) string {
	outcome := "❌ Lost"
	if match.PlayerWon() {
		outcome = "✅ Won"
	}

	return fmt.Sprintf(
		"%s %s a match as %s with KDA %d/%d/%d. Match duration: %s. Match details: %s/matches/%d",
		name,
		outcome,
		match.HeroName(),
		match.Kills, match.Deaths, match.Assists,
		FormatDuration(match.Duration),
		strings.TrimRight(detailsBaseURL, "/"),
		match.MatchID,
	)
}
