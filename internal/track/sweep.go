package track

import (
	"context"
	"time"

	"flockwatch/internal/store/followerdb"
)

// Gone identifies one follower newly classified as gone by a sweep.
type Gone struct {
	ID         string
	ScreenName string
}

// SweepResult is the set of followers a sweep marked gone.
type SweepResult struct {
	Count int
	Gone  []Gone
}

// Sweep selects records not yet gone whose last_seen predates now minus the
// grace window, marks them gone, and returns the selected set. Running it
// again without an intervening reconciliation selects nothing, since the
// first pass already flipped the flag. It must run after reconciliation has
// refreshed last_seen for all currently-present followers. Any store error
// here is fatal: marking followers gone off a partial read would invent
// unfollows.
func Sweep(ctx context.Context, tx *followerdb.Tx, now time.Time, grace time.Duration) (SweepResult, error) {
	var res SweepResult
	stale, err := tx.SelectStale(ctx, now.Add(-grace))
	if err != nil {
		return res, err
	}
	if len(stale) == 0 {
		return res, nil
	}
	ids := make([]string, len(stale))
	res.Gone = make([]Gone, len(stale))
	for i, f := range stale {
		ids[i] = f.ID
		res.Gone[i] = Gone{ID: f.ID, ScreenName: f.ScreenName}
	}
	if err := tx.MarkGone(ctx, ids); err != nil {
		return SweepResult{}, err
	}
	res.Count = len(stale)
	return res, nil
}
