package points

import (
	"sort"
	"time"
)

// Point is a single named, timestamped counter observation tagged with the
// account it belongs to. Immutable once built; written to the sink exactly
// once.
type Point struct {
	Measurement string
	Account     string
	Time        time.Time
	Value       float64
}

// Build turns a flat counter mapping into one point per entry, tagged by
// account. The input map is not modified. Output is sorted by measurement
// name so runs and tests see a stable order.
func Build(account string, counters map[string]int, ts time.Time) []Point {
	if len(counters) == 0 {
		return nil
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Point, 0, len(names))
	for _, name := range names {
		out = append(out, Point{
			Measurement: name,
			Account:     account,
			Time:        ts,
			Value:       float64(counters[name]),
		})
	}
	return out
}
