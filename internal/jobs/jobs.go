package jobs

import (
	"flockwatch/internal/points"
)

// Sink is the time-series store a run writes counter points to.
type Sink interface {
	EnsureDatabase() error
	Record([]points.Point) error
}
