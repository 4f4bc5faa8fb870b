package xclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"flockwatch/internal/metrics"
	"flockwatch/internal/model"

	"golang.org/x/time/rate"
)

// XClient defines methods we use from X API.
type XClient interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error)
}

// HTTPClient is a bearer-token client for X API v2.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(bearerToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("X_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

type rawUser struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	CreatedAt     time.Time `json:"created_at"`
	Verified      bool      `json:"verified"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
		ListedCount    int `json:"listed_count"`
		LikeCount      int `json:"like_count"`
	} `json:"public_metrics"`
}

func (r rawUser) toModel() model.User {
	return model.User{
		ID:             r.ID,
		Username:       r.Username,
		Name:           r.Name,
		CreatedAt:      r.CreatedAt,
		Verified:       r.Verified,
		FollowersCount: r.PublicMetrics.FollowersCount,
		FollowingCount: r.PublicMetrics.FollowingCount,
		TweetCount:     r.PublicMetrics.TweetCount,
		ListedCount:    r.PublicMetrics.ListedCount,
		LikedCount:     r.PublicMetrics.LikeCount,
	}
}

const userFields = "user.fields=public_metrics,created_at,verified"

func (c *HTTPClient) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var out model.User
	if username == "" {
		return out, errors.New("empty username")
	}
	u := fmt.Sprintf("%s/users/by/username/%s?%s", c.baseURL, url.PathEscape(username), userFields)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data rawUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	return raw.Data.toModel(), nil
}

// GetFollowers pages through the followers of userID. limit caps the total
// returned; limit <= 0 means fetch everything the API will hand out.
func (c *HTTPClient) GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error) {
	if userID == "" {
		return nil, errors.New("empty user id")
	}
	var out []model.User
	token := ""
	for {
		pageSize := 1000
		if limit > 0 && limit-len(out) < pageSize {
			pageSize = limit - len(out)
		}
		u := fmt.Sprintf("%s/users/%s/followers?max_results=%d&%s", c.baseURL, url.PathEscape(userID), clamp(pageSize, 10, 1000), userFields)
		if token != "" {
			u += "&pagination_token=" + url.QueryEscape(token)
		}
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		c.auth(req)
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.doWithRetry(ctx, req)
		if err != nil {
			return nil, err
		}
		var raw struct {
			Data []rawUser `json:"data"`
			Meta struct {
				NextToken string `json:"next_token"`
			} `json:"meta"`
		}
		err = json.NewDecoder(resp.Body).Decode(&raw)
		status := resp.StatusCode
		_ = resp.Body.Close()
		if status >= 400 {
			return nil, fmt.Errorf("x api status %d", status)
		}
		if err != nil {
			return nil, err
		}
		for _, d := range raw.Data {
			out = append(out, d.toModel())
		}
		if raw.Meta.NextToken == "" || (limit > 0 && len(out) >= limit) {
			break
		}
		token = raw.Meta.NextToken
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				metrics.IncAPIRetry(req.URL.Path)
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		metrics.IncAPIRetry(req.URL.Path)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}
