// Package snapshot loads the organizer's input document and remembers
// which version of it was last put on the panel.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"organizer/internal/config"
	"organizer/internal/httpcache"
	"organizer/internal/model"
)

// Payload is one loaded snapshot together with when it last changed.
type Payload struct {
	Snapshot model.Snapshot
	Raw      []byte
	Updated  time.Time
	// FromCache is set when the origin could not be reached or reported no
	// change.
	FromCache bool
}

// Source loads the snapshot from either an HTTP endpoint or a local file.
type Source struct {
	url     string
	token   string
	file    string
	fetcher *httpcache.Fetcher
}

// NewSource builds a source for the snapshot section. When both url and
// file are set the URL wins.
func NewSource(cfg config.SnapshotConfig, fetcher *httpcache.Fetcher) (*Source, error) {
	if cfg.URL == "" && cfg.File == "" {
		return nil, errors.New("snapshot: neither url nor file configured")
	}
	if cfg.URL != "" && fetcher == nil {
		return nil, errors.New("snapshot: url configured without a fetcher")
	}
	return &Source{url: cfg.URL, token: cfg.Token, file: cfg.File, fetcher: fetcher}, nil
}

func (s *Source) Load(ctx context.Context) (Payload, error) {
	var (
		p   Payload
		err error
	)
	if s.url != "" {
		var res httpcache.Result
		res, err = s.fetcher.Fetch(ctx, httpcache.Request{ID: "snapshot", URL: s.url, Token: s.token})
		if err != nil {
			return Payload{}, fmt.Errorf("snapshot: fetch: %w", err)
		}
		p = Payload{Raw: res.Body, Updated: res.Modified, FromCache: res.FromCache}
	} else {
		p, err = readFile(s.file)
		if err != nil {
			return Payload{}, err
		}
	}

	p.Snapshot, err = model.DecodeSnapshot(p.Raw)
	if err != nil {
		return Payload{}, err
	}
	return p, nil
}

func readFile(path string) (Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Payload{}, fmt.Errorf("snapshot: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("snapshot: %w", err)
	}
	return Payload{Raw: data, Updated: info.ModTime()}, nil
}

// State is the last-rendered marker kept in the state directory. It holds a
// single RFC 3339 timestamp: the update time of the payload last shown.
type State struct {
	path string
}

func NewState(dir string) *State {
	return &State{path: filepath.Join(dir, "last_rendered.txt")}
}

// LastRendered returns the zero time when nothing was rendered yet or the
// marker is unreadable.
func (s *State) LastRendered() time.Time {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}
	}
	return t
}

// NeedsRender reports whether updated is newer than the last render.
func (s *State) NeedsRender(updated time.Time) bool {
	last := s.LastRendered()
	return last.IsZero() || updated.After(last)
}

// MarkRendered records updated. Call it only once the frame is on the
// panel.
func (s *State) MarkRendered(updated time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(updated.UTC().Format(time.RFC3339Nano)+"\n"), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
