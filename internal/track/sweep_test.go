package track

import (
	"testing"
	"time"

	"flockwatch/internal/model"
)

func TestSweepRespectsGraceBoundary(t *testing.T) {
	db := openTestDB(t)
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	grace := 48 * time.Hour
	reconcileAt(t, db, []model.User{{ID: "1", Username: "alice", Name: "Alice"}}, t0)

	if res := sweepAt(t, db, t0.Add(grace-time.Hour), grace); res.Count != 0 {
		t.Fatalf("sweep inside grace window marked %d gone", res.Count)
	}
	res := sweepAt(t, db, t0.Add(grace+time.Hour), grace)
	if res.Count != 1 {
		t.Fatalf("sweep past grace window expected 1 gone, got %d", res.Count)
	}
	if res.Gone[0].ID != "1" || res.Gone[0].ScreenName != "alice" {
		t.Fatalf("unexpected gone set: %+v", res.Gone)
	}
}

func TestSweepIdempotent(t *testing.T) {
	db := openTestDB(t)
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	grace := 48 * time.Hour
	reconcileAt(t, db, []model.User{{ID: "1", Username: "alice", Name: "Alice"}}, t0)

	now := t0.Add(grace + time.Hour)
	if res := sweepAt(t, db, now, grace); res.Count != 1 {
		t.Fatalf("first sweep expected 1, got %d", res.Count)
	}
	second := sweepAt(t, db, now, grace)
	if second.Count != 0 || len(second.Gone) != 0 {
		t.Fatalf("second sweep should find nothing, got %+v", second)
	}
}

func TestSweepNeverCatchesFreshRecord(t *testing.T) {
	db := openTestDB(t)
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	reconcileAt(t, db, []model.User{{ID: "1", Username: "alice", Name: "Alice"}}, t0)
	if res := sweepAt(t, db, t0, 48*time.Hour); res.Count != 0 {
		t.Fatalf("record observed at sweep time marked gone")
	}
}

func TestSweepEndToEndScenario(t *testing.T) {
	// Day 0: A and B present. Day 1: only A. Day 3 sweep with a two-day
	// grace window must mark exactly B gone.
	db := openTestDB(t)
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	grace := 48 * time.Hour

	reconcileAt(t, db, []model.User{
		{ID: "A", Username: "anna", Name: "Anna"},
		{ID: "B", Username: "ben", Name: "Ben"},
	}, t0)
	reconcileAt(t, db, []model.User{{ID: "A", Username: "anna", Name: "Anna"}}, t0.Add(24*time.Hour))

	res := sweepAt(t, db, t0.Add(72*time.Hour), grace)
	if res.Count != 1 {
		t.Fatalf("expected exactly one gone, got %d", res.Count)
	}
	if res.Gone[0].ID != "B" {
		t.Fatalf("expected B gone, got %+v", res.Gone)
	}
}
