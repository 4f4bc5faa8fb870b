package jobs

import (
	"context"
	"time"

	"flockwatch/internal/config"
	"flockwatch/internal/logging"
	"flockwatch/internal/metrics"
	"flockwatch/internal/points"
	"flockwatch/internal/xclient"
)

// RunMetricsOnce fetches the account's public counters and writes them to
// the time-series sink as one batch of points.
func RunMetricsOnce(ctx context.Context, client xclient.XClient, sink Sink, cfg config.Config) error {
	start := time.Now()
	now := start.UTC()
	me, err := client.GetUserByUsername(ctx, cfg.Account.Username)
	if err != nil {
		return err
	}
	pts := points.Build(cfg.Account.Username, me.Counters(), now)
	if err := sink.EnsureDatabase(); err != nil {
		return err
	}
	if err := sink.Record(pts); err != nil {
		return err
	}
	logging.Info("counters_recorded", map[string]any{
		"account":   cfg.Account.Username,
		"points":    len(pts),
		"followers": me.FollowersCount,
	})
	metrics.ObserveRunDuration(start)
	return nil
}
