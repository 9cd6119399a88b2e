package steam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToAccountID(t *testing.T) {
	assert.Equal(t, int64(86745912), ToAccountID(76561198047011640))
	assert.Equal(t, int64(0), ToAccountID(76561197960265728))
}

func TestToSteamID(t *testing.T) {
	assert.Equal(t, int64(76561198047011640), ToSteamID(86745912))
}

func TestIDRoundTrip(t *testing.T) {
	for _, accountID := range []int64{0, 1, 7890, 86745912, 1<<32 - 1} {
		assert.Equal(t, accountID, ToAccountID(ToSteamID(accountID)))
	}

	for _, steamID := range []int64{76561197960265728, 76561197960287930, 76561198047011640} {
		assert.Equal(t, steamID, ToSteamID(ToAccountID(steamID)))
	}
}
