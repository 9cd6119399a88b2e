package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	APIBaseURL   = "https://api.steampowered.com"
	OpenIDURL    = "https://steamcommunity.com/openid/login"
	openIDNS     = "http://specs.openid.net/auth/2.0"
	openIDSelect = "http://specs.openid.net/auth/2.0/identifier_select"
)

var (
	ErrInvalidClaimedID = errors.New("invalid openid claimed id")

	claimedIDPattern = regexp.MustCompile(`id/(\d+)$`)
)

// PlayerSummary is a subset of ISteamUser/GetPlayerSummaries player fields
type PlayerSummary struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	ProfileURL  string `json:"profileurl"`
	Avatar      string `json:"avatar"`
	AvatarFull  string `json:"avatarfull"`
	LastLogoff  int64  `json:"lastlogoff"`
}

// Friend is an entry of ISteamUser/GetFriendList
type Friend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

type Client struct {
	apiKey     string
	apiBaseURL string
	openIDURL  string
	httpClient *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		apiBaseURL: APIBaseURL,
		openIDURL:  OpenIDURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoginURL builds the OpenID checkid_setup redirect for the given public base URL
func (c *Client) LoginURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")

	params := url.Values{}
	params.Set("openid.ns", openIDNS)
	params.Set("openid.mode", "checkid_setup")
	params.Set("openid.return_to", baseURL+"/auth/steam/callback")
	params.Set("openid.realm", baseURL+"/")
	params.Set("openid.identity", openIDSelect)
	params.Set("openid.claimed_id", openIDSelect)

	return c.openIDURL + "?" + params.Encode()
}

// ValidateAuthRequest asks Steam to confirm the assertion it sent to the callback.
// Transport failures are reported as an invalid assertion.
func (c *Client) ValidateAuthRequest(ctx context.Context, params url.Values) bool {
	check := url.Values{}
	for key, values := range params {
		check[key] = append([]string(nil), values...)
	}
	check.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.openIDURL, strings.NewReader(check.Encode()))
	if err != nil {
		slog.Error("steam: Failed to create validation request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("steam: OpenID validation request failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("steam: Failed to read OpenID validation response", "error", err)
		return false
	}

	return strings.Contains(string(body), "is_valid:true")
}

// ClaimedSteamID extracts the SteamID64 from openid.claimed_id
func ClaimedSteamID(params url.Values) (int64, error) {
	match := claimedIDPattern.FindStringSubmatch(params.Get("openid.claimed_id"))
	if match == nil {
		return 0, ErrInvalidClaimedID
	}

	steamID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidClaimedID, err)
	}

	return steamID, nil
}

func (c *Client) PlayerSummaries(ctx context.Context, steamIDs []int64) ([]PlayerSummary, error) {
	ids := make([]string, 0, len(steamIDs))
	for _, id := range steamIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	params := url.Values{}
	params.Set("steamids", strings.Join(ids, ","))
	params.Set("key", c.apiKey)

	var result struct {
		Response struct {
			Players []PlayerSummary `json:"players"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/ISteamUser/GetPlayerSummaries/v2/", params, &result); err != nil {
		return nil, fmt.Errorf("failed to get player summaries: %w", err)
	}

	return result.Response.Players, nil
}

func (c *Client) FriendList(ctx context.Context, steamID int64) ([]Friend, error) {
	params := url.Values{}
	params.Set("steamid", strconv.FormatInt(steamID, 10))
	params.Set("key", c.apiKey)
	params.Set("relationship", "friend")

	var result struct {
		FriendsList struct {
			Friends []Friend `json:"friends"`
		} `json:"friendslist"`
	}
	if err := c.get(ctx, "/ISteamUser/GetFriendList/v1/", params, &result); err != nil {
		return nil, fmt.Errorf("failed to get friend list: %w", err)
	}

	return result.FriendsList.Friends, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
