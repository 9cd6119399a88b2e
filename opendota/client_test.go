package opendota

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchesPayload = `[{
	"match_id": 8642866804,
	"player_slot": 3,
	"radiant_win": true,
	"duration": 2285,
	"game_mode": 2,
	"lobby_type": 1,
	"hero_id": 100,
	"start_time": 1768015812,
	"version": 22,
	"kills": 4,
	"deaths": 5,
	"assists": 21,
	"average_rank": 75,
	"leaver_status": 0,
	"party_size": 10,
	"hero_variant": 1
}]`

func TestPlayerMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/86745912/matches", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(matchesPayload))
	}))
	defer server.Close()

	matches, err := NewClient(server.URL, 5*time.Second).PlayerMatches(context.Background(), 86745912, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, int64(8642866804), m.MatchID)
	assert.Equal(t, 3, m.PlayerSlot)
	assert.True(t, m.RadiantWin)
	assert.Equal(t, int64(2285), m.Duration)
	assert.Equal(t, 100, m.HeroID)
	assert.Equal(t, "Tusk", m.HeroName())
	assert.Equal(t, 4, m.Kills)
	assert.Equal(t, 5, m.Deaths)
	assert.Equal(t, 21, m.Assists)
	assert.True(t, m.PlayerWon())
}

func TestPlayerMatches_DefaultLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	matches, err := NewClient(server.URL, 5*time.Second).PlayerMatches(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPlayerMatches_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 5*time.Second).PlayerMatches(context.Background(), 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "rate limit")
}

func TestPlayerMatches_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(server.URL, 5*time.Second)
	server.Close()

	_, err := client.PlayerMatches(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPlayerMatches_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 5*time.Second).PlayerMatches(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
