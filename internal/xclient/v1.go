package xclient

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"flockwatch/internal/model"
)

// V1Client talks to X API v1.1 via OAuth 1.0a user-context auth. The v1.1
// follower endpoints work on tiers where the v2 followers lookup does not.
type V1Client struct {
	Base           *HTTPClient
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	baseURL        string
	nowFn          func() time.Time
	nonceFn        func() string
}

func NewV1Client(base *HTTPClient, ck, cs, at, as string) *V1Client {
	return &V1Client{
		Base:           base,
		ConsumerKey:    ck,
		ConsumerSecret: cs,
		AccessToken:    at,
		AccessSecret:   as,
		baseURL:        "https://api.twitter.com/1.1",
		nowFn:          time.Now,
		nonceFn:        func() string { return strconv.FormatInt(rand.Int63(), 36) },
	}
}

type rawV1User struct {
	IDStr           string `json:"id_str"`
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	FollowersCount  int    `json:"followers_count"`
	FriendsCount    int    `json:"friends_count"`
	StatusesCount   int    `json:"statuses_count"`
	ListedCount     int    `json:"listed_count"`
	FavouritesCount int    `json:"favourites_count"`
	Verified        bool   `json:"verified"`
	CreatedAt       string `json:"created_at"`
}

func (r rawV1User) toModel() model.User {
	ts, _ := time.Parse(time.RubyDate, r.CreatedAt)
	return model.User{
		ID:             r.IDStr,
		Username:       r.ScreenName,
		Name:           r.Name,
		CreatedAt:      ts,
		Verified:       r.Verified,
		FollowersCount: r.FollowersCount,
		FollowingCount: r.FriendsCount,
		TweetCount:     r.StatusesCount,
		ListedCount:    r.ListedCount,
		LikedCount:     r.FavouritesCount,
	}
}

// GetUserByUsername fetches account-level counters via users/show.json.
func (c *V1Client) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var out model.User
	if username == "" {
		return out, fmt.Errorf("empty username")
	}
	params := map[string]string{"screen_name": username}
	var raw rawV1User
	if err := c.getJSON(ctx, "/users/show.json", params, &raw); err != nil {
		return out, err
	}
	return raw.toModel(), nil
}

// GetFollowers pages followers/list.json by cursor. limit <= 0 means all.
func (c *V1Client) GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id")
	}
	var out []model.User
	cursor := "-1"
	for cursor != "0" {
		count := 200
		if limit > 0 && limit-len(out) < count {
			count = limit - len(out)
		}
		params := map[string]string{
			"user_id":     userID,
			"count":       strconv.Itoa(clamp(count, 1, 200)),
			"cursor":      cursor,
			"skip_status": "true",
		}
		var raw struct {
			Users         []rawV1User `json:"users"`
			NextCursorStr string      `json:"next_cursor_str"`
		}
		if err := c.getJSON(ctx, "/followers/list.json", params, &raw); err != nil {
			return nil, err
		}
		for _, u := range raw.Users {
			out = append(out, u.toModel())
		}
		if len(raw.Users) == 0 || (limit > 0 && len(out) >= limit) {
			break
		}
		cursor = raw.NextCursorStr
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *V1Client) getJSON(ctx context.Context, path string, params map[string]string, dst any) error {
	reqURL := c.baseURL + path + "?" + encodeQuery(params)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	c.oauth1Sign(req, params)
	if err := c.Base.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.Base.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("x v1 status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *V1Client) oauth1Sign(req *http.Request, queryParams map[string]string) {
	oauth := map[string]string{
		"oauth_consumer_key":     c.ConsumerKey,
		"oauth_nonce":            c.nonceFn(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(c.nowFn().Unix(), 10),
		"oauth_token":            c.AccessToken,
		"oauth_version":          "1.0",
	}
	all := map[string]string{}
	for k, v := range oauth {
		all[k] = v
	}
	for k, v := range queryParams {
		all[k] = v
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	paramParts := make([]string, 0, len(keys))
	for _, k := range keys {
		paramParts = append(paramParts, rfc3986(k)+"="+rfc3986(all[k]))
	}
	paramStr := strings.Join(paramParts, "&")
	baseURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
	base := "GET&" + rfc3986(baseURL) + "&" + rfc3986(paramStr)
	signingKey := rfc3986(c.ConsumerSecret) + "&" + rfc3986(c.AccessSecret)
	mac := hmac.New(sha1.New, []byte(signingKey))
	_, _ = mac.Write([]byte(base))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	oauth["oauth_signature"] = sig
	hdrKeys := make([]string, 0, len(oauth))
	for k := range oauth {
		hdrKeys = append(hdrKeys, k)
	}
	sort.Strings(hdrKeys)
	authParts := make([]string, 0, len(hdrKeys))
	for _, k := range hdrKeys {
		authParts = append(authParts, fmt.Sprintf("%s=\"%s\"", rfc3986(k), rfc3986(oauth[k])))
	}
	req.Header.Set("Authorization", "OAuth "+strings.Join(authParts, ", "))
	req.Header.Set("Accept", "application/json")
}

func encodeQuery(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(m[k]))
	}
	return strings.Join(parts, "&")
}

// RFC 3986 percent-encoding for OAuth
func rfc3986(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(url.QueryEscape(s), "+", "%20"), "*", "%2A")
}
