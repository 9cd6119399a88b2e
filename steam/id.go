package steam

// idOffset separates 64-bit Steam IDs from 32-bit Dota account IDs.
const idOffset int64 = 76561197960265728

// ToAccountID converts a SteamID64 to the account ID used by OpenDota and the storage.
func ToAccountID(steamID int64) int64 {
	return steamID - idOffset
}

// ToSteamID converts an account ID back to a SteamID64.
func ToSteamID(accountID int64) int64 {
	return accountID + idOffset
}
