package snapshot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"organizer/internal/config"
	"organizer/internal/httpcache"
	"organizer/internal/log"
)

const doc = `{"schedule":[{"startTime":"2024-05-06T09:00:00Z","endTime":"2024-05-06T09:30:00Z","summary":"Standup"}],"tasks":[{"complete":false,"summary":"Water plants"}]}`

func TestSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "current.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	src, err := NewSource(config.SnapshotConfig{File: path}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.Updated.Equal(mtime) {
		t.Errorf("Updated = %v, want %v", p.Updated, mtime)
	}
	if len(p.Snapshot.Schedule) != 1 || p.Snapshot.Tasks[0].Summary != "Water plants" {
		t.Errorf("Snapshot = %+v", p.Snapshot)
	}
}

func TestSourceURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t0k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Last-Modified", "Mon, 06 May 2024 08:00:00 GMT")
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	fetcher := httpcache.New(t.TempDir(), httpcache.WithLogger(log.New(log.Options{Out: io.Discard})))
	src, err := NewSource(config.SnapshotConfig{URL: srv.URL, Token: "t0k", File: "/does/not/exist"}, fetcher)
	if err != nil {
		t.Fatal(err)
	}
	p, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC); !p.Updated.Equal(want) {
		t.Errorf("Updated = %v, want %v", p.Updated, want)
	}
	if p.Snapshot.Schedule[0].Summary != "Standup" {
		t.Errorf("Snapshot = %+v", p.Snapshot)
	}
}

func TestSourceErrors(t *testing.T) {
	if _, err := NewSource(config.SnapshotConfig{}, nil); err == nil {
		t.Error("empty config accepted")
	}
	if _, err := NewSource(config.SnapshotConfig{URL: "http://x"}, nil); err == nil {
		t.Error("url without fetcher accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("<html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	src, _ := NewSource(config.SnapshotConfig{File: path}, nil)
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("malformed document accepted")
	}

	src, _ = NewSource(config.SnapshotConfig{File: filepath.Join(t.TempDir(), "missing.json")}, nil)
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("missing file accepted")
	}
}

func TestState(t *testing.T) {
	s := NewState(filepath.Join(t.TempDir(), "state"))
	t0 := time.Date(2024, 5, 6, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	if !s.LastRendered().IsZero() {
		t.Fatal("fresh state has a last render")
	}
	if !s.NeedsRender(t0) {
		t.Error("fresh state skipped a render")
	}
	if err := s.MarkRendered(t0); err != nil {
		t.Fatalf("MarkRendered: %v", err)
	}
	if !s.LastRendered().Equal(t0) {
		t.Errorf("LastRendered = %v, want %v", s.LastRendered(), t0)
	}

	tests := []struct {
		name    string
		updated time.Time
		want    bool
	}{
		{"same payload", t0, false},
		{"older payload", t0.Add(-time.Minute), false},
		{"newer payload", t0.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.NeedsRender(tt.updated); got != tt.want {
				t.Errorf("NeedsRender(%v) = %v, want %v", tt.updated, got, tt.want)
			}
		})
	}
}

func TestStateUnreadableMarker(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "last_rendered.txt"), []byte("yesterday"), 0o600); err != nil {
		t.Fatal(err)
	}
	if s := NewState(dir); !s.NeedsRender(time.Unix(0, 0)) {
		t.Error("garbage marker blocked a render")
	}
}
