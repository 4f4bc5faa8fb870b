package jobs

import (
	"context"
	"time"

	"flockwatch/internal/config"
	"flockwatch/internal/logging"
	"flockwatch/internal/metrics"
	"flockwatch/internal/store/followerdb"
	"flockwatch/internal/track"
	"flockwatch/internal/xclient"
)

const reconcileCursor = "followers:last_reconcile"

// RunFollowersOnce fetches the current follower snapshot and reconciles it
// into the store. limit caps the fetch; 0 means everything. Fetch and
// transaction errors are fatal; per-record upsert failures are logged and
// counted but do not fail the run.
func RunFollowersOnce(ctx context.Context, db *followerdb.DB, client xclient.XClient, cfg config.Config, limit int) error {
	start := time.Now()
	now := start.UTC()
	me, err := client.GetUserByUsername(ctx, cfg.Account.Username)
	if err != nil {
		return err
	}
	snapshot, err := client.GetFollowers(ctx, me.ID, limit)
	if err != nil {
		return err
	}
	logging.Debug("snapshot_fetched", map[string]any{"count": len(snapshot), "limit": limit})
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	res, err := track.Reconcile(ctx, tx, snapshot, now)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, f := range res.Failures {
		metrics.UpsertFailures.Inc()
		logging.Error("upsert_failed", map[string]any{"id": f.ID, "screen_name": f.ScreenName, "error": f.Err.Error()})
	}
	_ = db.SaveCursor(ctx, reconcileCursor, now.Format(time.RFC3339Nano))
	total, gone, _ := db.Count(ctx)
	logging.Info("followers_reconciled", map[string]any{
		"snapshot": len(snapshot),
		"upserted": res.Processed,
		"failed":   len(res.Failures),
		"total":    total,
		"gone":     gone,
	})
	metrics.ObserveRunDuration(start)
	return nil
}
