package web

import "strconv"

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type notificationsResponse struct {
	SteamID  string `json:"steam_id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Token    string `json:"token,omitempty"`
	Link     string `json:"link,omitempty"`
}

type friendResponse struct {
	AccountID int64  `json:"account_id"`
	SteamID   string `json:"steam_id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Following bool   `json:"following"`
}

type userResponse struct {
	AccountID int64  `json:"account_id"`
	SteamID   string `json:"steam_id"`
	Name      string `json:"name"`
	Linked    bool   `json:"linked"`
	Following bool   `json:"following"`
}

// steamIDString keeps 64-bit IDs intact for JavaScript clients
func steamIDString(steamID int64) string {
	return strconv.FormatInt(steamID, 10)
}
