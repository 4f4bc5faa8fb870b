package jobs

import (
	"context"
	"time"

	"flockwatch/internal/config"
	"flockwatch/internal/logging"
	"flockwatch/internal/store/followerdb"
	"flockwatch/internal/xclient"
)

// RunWatchOnce executes one full cycle: reconcile the snapshot, sweep for
// unfollows, and record the account counters. Reconciliation must finish
// before the sweep so the sweep only sees genuinely absent followers.
func RunWatchOnce(ctx context.Context, db *followerdb.DB, client xclient.XClient, sink Sink, cfg config.Config) error {
	if err := RunFollowersOnce(ctx, db, client, cfg, cfg.Tracker.FetchLimit); err != nil {
		return err
	}
	if err := RunUnfollowsOnce(ctx, db, sink, cfg); err != nil {
		return err
	}
	return RunMetricsOnce(ctx, client, sink, cfg)
}

// RunWatchLoop runs RunWatchOnce on a ticker until ctx is cancelled.
func RunWatchLoop(ctx context.Context, db *followerdb.DB, client xclient.XClient, sink Sink, cfg config.Config, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if err := RunWatchOnce(ctx, db, client, sink, cfg); err != nil {
		logging.Error("watch_once_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("watch_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := RunWatchOnce(ctx, db, client, sink, cfg); err != nil {
				logging.Error("watch_once_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
