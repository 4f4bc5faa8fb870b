// Package track holds the presence-tracking core: reconciling follower
// snapshots into the store and sweeping stale records as gone. The two
// passes are deliberately separate so each can be tested on its own; a run
// may still execute them back to back inside one transaction.
package track

import (
	"context"
	"time"

	"flockwatch/internal/model"
	"flockwatch/internal/store/followerdb"
)

// RecordFailure is a single follower whose upsert failed during a
// reconciliation pass. Failures are reported, not fatal.
type RecordFailure struct {
	ID         string
	ScreenName string
	Err        error
}

// Result summarizes one reconciliation pass.
type Result struct {
	Processed int
	Failures  []RecordFailure
}

// Reconcile upserts every follower in the snapshot: unknown ids are
// inserted with first_seen = last_seen = now, known ids have their names
// refreshed, last_seen set to now, and gone cleared. first_seen is never
// touched after insert. A failed upsert is recorded in the result and the
// rest of the batch continues; only context cancellation aborts the pass.
func Reconcile(ctx context.Context, tx *followerdb.Tx, snapshot []model.User, now time.Time) (Result, error) {
	var res Result
	for _, u := range snapshot {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := tx.Upsert(ctx, u.ID, u.Username, u.Name, now); err != nil {
			res.Failures = append(res.Failures, RecordFailure{ID: u.ID, ScreenName: u.Username, Err: err})
			continue
		}
		res.Processed++
	}
	return res, nil
}
