package tsdb

import (
	"fmt"
	"strings"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"flockwatch/internal/config"
	"flockwatch/internal/points"
)

// Recorder writes counter points to an InfluxDB 1.x database.
type Recorder struct {
	cli      client.Client
	database string
}

func New(cfg config.InfluxConfig) (*Recorder, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("influx.addr is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("influx.database is required")
	}
	cli, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &Recorder{cli: cli, database: cfg.Database}, nil
}

func (r *Recorder) Close() error { return r.cli.Close() }

// EnsureDatabase creates the target database when it is missing. CREATE
// DATABASE is idempotent on the server, so losing the check-then-create
// race to a concurrent process is harmless.
func (r *Recorder) EnsureDatabase() error {
	exists, err := r.databaseExists()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	q := client.NewQuery(`CREATE DATABASE "`+escapeIdent(r.database)+`"`, "", "")
	resp, err := r.cli.Query(q)
	if err != nil {
		return err
	}
	return resp.Error()
}

func (r *Recorder) databaseExists() (bool, error) {
	resp, err := r.cli.Query(client.NewQuery("SHOW DATABASES", "", ""))
	if err != nil {
		return false, err
	}
	if err := resp.Error(); err != nil {
		return false, err
	}
	for _, result := range resp.Results {
		for _, row := range result.Series {
			for _, values := range row.Values {
				for _, v := range values {
					if name, ok := v.(string); ok && name == r.database {
						return true, nil
					}
				}
			}
		}
	}
	return false, nil
}

// Record writes all points as one batch. Failures are returned to the
// caller and end the run; there is no retry at this layer.
func (r *Recorder) Record(pts []points.Point) error {
	if len(pts) == 0 {
		return nil
	}
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  r.database,
		Precision: "s",
	})
	if err != nil {
		return err
	}
	for _, p := range pts {
		pt, err := client.NewPoint(
			p.Measurement,
			map[string]string{"user": p.Account},
			map[string]any{"value": p.Value},
			p.Time,
		)
		if err != nil {
			return err
		}
		bp.AddPoint(pt)
	}
	return r.cli.Write(bp)
}

func escapeIdent(s string) string { return strings.ReplaceAll(s, `"`, ``) }
