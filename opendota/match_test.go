package opendota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatch_PlayerWon(t *testing.T) {
	tests := []struct {
		name       string
		playerSlot int
		radiantWin bool
		radiant    bool
		won        bool
	}{
		{name: "radiant player, radiant won", playerSlot: 0, radiantWin: true, radiant: true, won: true},
		{name: "radiant player, dire won", playerSlot: 4, radiantWin: false, radiant: true, won: false},
		{name: "dire player, dire won", playerSlot: 128, radiantWin: false, radiant: false, won: true},
		{name: "dire player, radiant won", playerSlot: 132, radiantWin: true, radiant: false, won: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Match{PlayerSlot: tt.playerSlot, RadiantWin: tt.radiantWin}

			assert.Equal(t, tt.radiant, m.IsRadiant())
			assert.Equal(t, tt.won, m.PlayerWon())
		})
	}
}

func TestMatch_HeroName(t *testing.T) {
	assert.Equal(t, "Anti-Mage", Match{HeroID: 1}.HeroName())
	assert.Equal(t, "Largo", Match{HeroID: 155}.HeroName())
	assert.Equal(t, "Unknown Hero (24)", Match{HeroID: 24}.HeroName())
}

func TestMatch_Times(t *testing.T) {
	m := Match{StartTime: 1768015812, Duration: 2285}

	assert.Equal(t, time.Date(2026, time.January, 10, 3, 30, 12, 0, time.UTC), m.StartedAt())
	assert.Equal(t, 38*time.Minute+5*time.Second, m.MatchDuration())
}

func TestMatch_String(t *testing.T) {
	m := Match{MatchID: 7891, HeroID: 1, PlayerSlot: 1, RadiantWin: true, Kills: 10, Deaths: 2, Assists: 15, StartTime: 1768015812}

	assert.Equal(t, "Match 7891: Won as Anti-Mage with KDA 10/2/15 - 01/10/2026 03:30", m.String())
}
