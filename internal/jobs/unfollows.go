package jobs

import (
	"context"
	"time"

	"flockwatch/internal/config"
	"flockwatch/internal/logging"
	"flockwatch/internal/metrics"
	"flockwatch/internal/points"
	"flockwatch/internal/store/followerdb"
	"flockwatch/internal/track"
)

// RunUnfollowsOnce sweeps stale presence records, marks them gone, and
// records the unfollow count in the time-series sink. It assumes the most
// recent reconciliation already refreshed last_seen for everyone present.
func RunUnfollowsOnce(ctx context.Context, db *followerdb.DB, sink Sink, cfg config.Config) error {
	start := time.Now()
	now := start.UTC()
	grace, err := cfg.GraceWindow()
	if err != nil {
		return err
	}
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	res, err := track.Sweep(ctx, tx, now, grace)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metrics.UnfollowsDetected.Add(float64(res.Count))
	for _, g := range res.Gone {
		logging.Info("follower_gone", map[string]any{"id": g.ID, "screen_name": g.ScreenName})
	}
	pts := points.Build(cfg.Account.Username, map[string]int{"unfollows": res.Count}, now)
	if err := sink.EnsureDatabase(); err != nil {
		return err
	}
	if err := sink.Record(pts); err != nil {
		return err
	}
	logging.Info("unfollows_swept", map[string]any{"count": res.Count, "grace": grace.String()})
	metrics.ObserveRunDuration(start)
	return nil
}
