package model

import "time"

// User represents a subset of X user fields used by the tool.
type User struct {
	ID             string
	Username       string
	Name           string
	CreatedAt      time.Time
	FollowersCount int
	FollowingCount int
	TweetCount     int
	ListedCount    int
	LikedCount     int
	Verified       bool
}

// Counters returns the account-level public counters keyed by series name.
func (u User) Counters() map[string]int {
	return map[string]int{
		"followers": u.FollowersCount,
		"following": u.FollowingCount,
		"tweets":    u.TweetCount,
		"listed":    u.ListedCount,
		"likes":     u.LikedCount,
	}
}

// Follower is a persisted presence record for one follower account.
// FirstSeen is set at the first observation and never changes afterwards.
// LastSeen advances on every snapshot containing the id. Gone flips to true
// when a sweep finds LastSeen older than the grace window, and back to
// false when the id reappears in a later snapshot.
type Follower struct {
	ID          string
	ScreenName  string
	DisplayName string
	FirstSeen   time.Time
	LastSeen    time.Time
	Gone        bool
}
