package tsdb

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flockwatch/internal/config"
	"flockwatch/internal/points"
)

// fakeInflux mimics the InfluxDB 1.x HTTP API just enough for the recorder.
type fakeInflux struct {
	databases []string
	queries   []string
	writes    []string
	writeDB   string
}

func (f *fakeInflux) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		q := r.FormValue("q")
		f.queries = append(f.queries, q)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Influxdb-Version", "1.8")
		if strings.HasPrefix(q, "SHOW DATABASES") {
			vals := make([]string, 0, len(f.databases))
			for _, db := range f.databases {
				vals = append(vals, `["`+db+`"]`)
			}
			body := `{"results":[{"series":[{"name":"databases","columns":["name"],"values":[` + strings.Join(vals, ",") + `]}]}]}`
			_, _ = w.Write([]byte(body))
			return
		}
		if strings.HasPrefix(q, "CREATE DATABASE") {
			name := strings.Trim(strings.TrimPrefix(q, "CREATE DATABASE "), `"`)
			f.databases = append(f.databases, name)
			_, _ = w.Write([]byte(`{"results":[{}]}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	})
	mux.HandleFunc("/write", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.writes = append(f.writes, string(b))
		f.writeDB = r.URL.Query().Get("db")
		w.Header().Set("X-Influxdb-Version", "1.8")
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestRecorder(t *testing.T, f *fakeInflux, database string) *Recorder {
	t.Helper()
	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)
	rec, err := New(config.InfluxConfig{Addr: ts.URL, Database: database})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = rec.Close() })
	return rec
}

func TestEnsureDatabaseCreatesWhenMissing(t *testing.T) {
	f := &fakeInflux{databases: []string{"other"}}
	rec := newTestRecorder(t, f, "flockwatch")
	if err := rec.EnsureDatabase(); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, q := range f.queries {
		if q == `CREATE DATABASE "flockwatch"` {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CREATE DATABASE, queries: %v", f.queries)
	}
	// second call sees it and is a no-op
	before := len(f.queries)
	if err := rec.EnsureDatabase(); err != nil {
		t.Fatal(err)
	}
	for _, q := range f.queries[before:] {
		if strings.HasPrefix(q, "CREATE DATABASE") {
			t.Fatal("database created twice")
		}
	}
}

func TestEnsureDatabaseSkipsExisting(t *testing.T) {
	f := &fakeInflux{databases: []string{"flockwatch"}}
	rec := newTestRecorder(t, f, "flockwatch")
	if err := rec.EnsureDatabase(); err != nil {
		t.Fatal(err)
	}
	for _, q := range f.queries {
		if strings.HasPrefix(q, "CREATE DATABASE") {
			t.Fatalf("unexpected create: %v", f.queries)
		}
	}
}

func TestRecordWritesBatch(t *testing.T) {
	f := &fakeInflux{databases: []string{"flockwatch"}}
	rec := newTestRecorder(t, f, "flockwatch")
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pts := points.Build("alice", map[string]int{"followers": 120, "unfollows": 1}, ts)
	if err := rec.Record(pts); err != nil {
		t.Fatal(err)
	}
	if len(f.writes) != 1 {
		t.Fatalf("expected one batched write, got %d", len(f.writes))
	}
	if f.writeDB != "flockwatch" {
		t.Fatalf("wrote to wrong database %q", f.writeDB)
	}
	body := f.writes[0]
	if !strings.Contains(body, "followers,user=alice value=120") {
		t.Fatalf("followers point missing: %q", body)
	}
	if !strings.Contains(body, "unfollows,user=alice value=1") {
		t.Fatalf("unfollows point missing: %q", body)
	}
}

func TestRecordEmptyIsNoop(t *testing.T) {
	f := &fakeInflux{}
	rec := newTestRecorder(t, f, "flockwatch")
	if err := rec.Record(nil); err != nil {
		t.Fatal(err)
	}
	if len(f.writes) != 0 {
		t.Fatalf("unexpected write: %v", f.writes)
	}
}
