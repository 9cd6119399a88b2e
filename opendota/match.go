package opendota

import (
	"fmt"
	"time"
)

// radiantSlotLimit is the first player_slot value on the Dire side
const radiantSlotLimit = 128

// Match is an entry of /players/{account_id}/matches
type Match struct {
	MatchID    int64 `json:"match_id"`
	PlayerSlot int   `json:"player_slot"`
	RadiantWin bool  `json:"radiant_win"`
	Duration   int64 `json:"duration"` // seconds
	GameMode   int   `json:"game_mode"`
	LobbyType  int   `json:"lobby_type"`
	HeroID     int   `json:"hero_id"`
	StartTime  int64 `json:"start_time"` // unix seconds
	Kills      int   `json:"kills"`
	Deaths     int   `json:"deaths"`
	Assists    int   `json:"assists"`
}

// IsRadiant reports whether the player was on the Radiant side
func (m Match) IsRadiant() bool {
	return m.PlayerSlot < radiantSlotLimit
}

// PlayerWon reports whether the player's side won the match
func (m Match) PlayerWon() bool {
	if m.IsRadiant() {
		return m.RadiantWin
	}
	return !m.RadiantWin
}

func (m Match) HeroName() string {
	return HeroName(m.HeroID)
}

func (m Match) StartedAt() time.Time {
	return time.Unix(m.StartTime, 0).UTC()
}

func (m Match) MatchDuration() time.Duration {
	return time.Duration(m.Duration) * time.Second
}

func (m Match) String() string {
	result := "Lost"
	if m.PlayerWon() {
		result = "Won"
	}

	return fmt.Sprintf("Match %d: %s as %s with KDA %d/%d/%d - %s",
		m.MatchID, result, m.HeroName(), m.Kills, m.Deaths, m.Assists,
		m.StartedAt().Format("01/02/2006 15:04"))
}
