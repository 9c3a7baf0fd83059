package state

import (
	"time"

	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/sysstats"
)

const (
	// MaxEvents bounds the activity feed held in memory and on disk.
	MaxEvents = 50
	// MaxSpotlight bounds the spotlighted repository list.
	MaxSpotlight = 10
)

// SyncState is the freshness of the data currently on screen.
type SyncState int

const (
	Empty SyncState = iota
	Cached
	Refreshing
	Fresh
	StaleError
	Error
	Unauthorized
)

func (s SyncState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Cached:
		return "cached"
	case Refreshing:
		return "refreshing"
	case Fresh:
		return "fresh"
	case StaleError:
		return "stale"
	case Error:
		return "error"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// SyncError is the classified failure of the most recent fetch.
type SyncError struct {
	Kind       github.Kind
	Reason     string
	At         time.Time
	RetryAfter time.Time
}

// Snapshot is an immutable, fully formed view of the dashboard data.
type Snapshot struct {
	Profile    github.Profile
	HasProfile bool
	Stats      github.Stats
	// Repos holds every owned repository from the last successful fetch, in
	// the order the adapter returned them (most recently pushed first).
	Repos     []github.Repo
	Spotlight []github.Repo
	Events    []github.Event
	RateLimit github.RateLimit

	System    sysstats.Sample
	HasSystem bool

	LastFetched time.Time
	State       SyncState
	// Fetching is true while a fetch is in flight. It is the only sign of an
	// attempt made from Unauthorized, which keeps its state until a success.
	Fetching    bool
	LastError   *SyncError
	// RetryAfter is set while the remote has asked us to back off.
	RetryAfter time.Time
	// DeferredUntil is set when a manual refresh was postponed by a rate
	// limit and will run once the window closes.
	DeferredUntil time.Time

	Version     uint64
	PublishedAt time.Time
}

// HasData reports whether any remote data is available to draw.
func (s Snapshot) HasData() bool {
	return s.HasProfile || len(s.Repos) > 0 || len(s.Events) > 0
}

// NewEvents counts events that have not been drawn yet.
func (s Snapshot) NewEvents() int {
	n := 0
	for _, ev := range s.Events {
		if ev.New {
			n++
		}
	}
	return n
}

// Reason returns the human-readable error for the status bar, or "".
func (s Snapshot) Reason() string {
	if s.LastError == nil {
		return ""
	}
	return s.LastError.Reason
}

func (s Snapshot) clone() Snapshot {
	dup := s
	dup.Repos = cloneSlice(s.Repos)
	dup.Spotlight = cloneSlice(s.Spotlight)
	dup.Events = cloneSlice(s.Events)
	if s.LastError != nil {
		errCopy := *s.LastError
		dup.LastError = &errCopy
	}
	return dup
}

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
