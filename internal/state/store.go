package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/sysstats"
)

// Store holds the dashboard state. Writers are serialized and build a new
// Snapshot on every change; readers load the last published one without
// taking a lock. The zero value is ready to use and reads as Empty.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[Snapshot]

	// prior is the state in effect when the current refresh began.
	prior SyncState

	now func() time.Time
}

// Snapshot returns a copy of the latest published snapshot.
func (s *Store) Snapshot() Snapshot {
	p := s.cur.Load()
	if p == nil {
		return Snapshot{}
	}
	return p.clone()
}

// Seed installs cached data at startup. A nil or empty envelope leaves the
// store Empty.
func (s *Store) Seed(env *cache.Envelope) {
	s.mutate(func(next *Snapshot) bool {
		if env == nil || !env.HasData() {
			next.State = Empty
			return true
		}
		if env.Profile != nil {
			next.Profile = *env.Profile
			next.HasProfile = true
		}
		next.Stats = env.Stats
		next.Repos = cloneSlice(env.Repos)
		next.Spotlight = spotlight(env.Repos, MaxSpotlight)
		next.Events = cloneSlice(env.Events)
		for i := range next.Events {
			next.Events[i].New = false
		}
		sortEvents(next.Events)
		if len(next.Events) > MaxEvents {
			next.Events = next.Events[:MaxEvents]
		}
		next.RateLimit = env.RateLimit
		next.LastFetched = env.LastFetched
		next.State = Cached
		return true
	})
}

// BeginRefresh marks a fetch as started. Unauthorized is kept as the state
// while the fetch runs; any other state moves to Refreshing and is remembered
// for the outcome.
func (s *Store) BeginRefresh(manual bool) {
	s.mutate(func(next *Snapshot) bool {
		next.Fetching = true
		if next.State == Unauthorized {
			return true
		}
		if next.State != Refreshing {
			s.prior = next.State
		}
		next.State = Refreshing
		if manual {
			next.DeferredUntil = time.Time{}
		}
		return true
	})
}

// Apply merges a fetch outcome and reports whether any visible data changed.
// Failures never discard data; they only update the error metadata.
func (s *Store) Apply(out github.Outcome) bool {
	changed := false
	s.mutate(func(next *Snapshot) bool {
		prior := next.State
		if prior == Refreshing {
			prior = s.prior
		}
		next.Fetching = false

		if out.OK() {
			changed = applySuccess(next, out, s.clock())
			return true
		}

		next.LastError = &SyncError{
			Kind:       out.Kind,
			Reason:     reason(out),
			At:         s.clock(),
			RetryAfter: out.RetryAfter,
		}
		next.RetryAfter = time.Time{}
		if out.Kind == github.KindRateLimited {
			next.RetryAfter = out.RetryAfter
		}

		switch {
		case out.Kind == github.KindUnauthorized, prior == Unauthorized:
			next.State = Unauthorized
		case next.HasData():
			next.State = StaleError
		default:
			next.State = Error
		}
		return true
	})
	return changed
}

func applySuccess(next *Snapshot, out github.Outcome, now time.Time) bool {
	b := out.Bundle
	events := mergeEvents(next.Events, b.Events, MaxEvents)

	changed := !next.HasProfile ||
		!sameProfile(next.Profile, b.Profile) ||
		next.Stats != b.Stats ||
		!sameRepos(next.Repos, b.Repos) ||
		!sameEvents(next.Events, events)

	next.Profile = b.Profile
	next.HasProfile = true
	next.Stats = b.Stats
	next.Repos = cloneSlice(b.Repos)
	next.Spotlight = spotlight(b.Repos, MaxSpotlight)
	next.Events = events
	next.RateLimit = b.RateLimit
	next.LastFetched = out.FetchedAt
	if next.LastFetched.IsZero() {
		next.LastFetched = now
	}
	next.LastError = nil
	next.RetryAfter = time.Time{}
	next.State = Fresh
	return changed
}

// Defer records that a manual refresh was postponed until until.
func (s *Store) Defer(until time.Time) {
	s.mutate(func(next *Snapshot) bool {
		next.DeferredUntil = until
		if until.After(next.RetryAfter) {
			next.RetryAfter = until
		}
		return true
	})
}

// SetSystem replaces the local machine metrics.
func (s *Store) SetSystem(sample sysstats.Sample) {
	s.mutate(func(next *Snapshot) bool {
		next.System = sample
		next.HasSystem = true
		return true
	})
}

// MarkRendered clears the novelty flag on the given event ids.
func (s *Store) MarkRendered(ids []string) {
	if len(ids) == 0 {
		return
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mutate(func(next *Snapshot) bool {
		cleared := false
		for i := range next.Events {
			if _, ok := want[next.Events[i].ID]; ok && next.Events[i].New {
				next.Events[i].New = false
				cleared = true
			}
		}
		return cleared
	})
}

// Envelope returns the persistable part of the current snapshot.
func (s *Store) Envelope() cache.Envelope {
	snap := s.Snapshot()
	env := cache.Envelope{
		SchemaVersion: cache.SchemaVersion,
		Stats:         snap.Stats,
		Repos:         snap.Repos,
		Events:        snap.Events,
		RateLimit:     snap.RateLimit,
		LastFetched:   snap.LastFetched,
	}
	if snap.HasProfile {
		profile := snap.Profile
		env.Profile = &profile
	}
	return env
}

// mutate runs fn against a private copy of the current snapshot and
// publishes the copy when fn reports a change.
func (s *Store) mutate(fn func(next *Snapshot) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next Snapshot
	if p := s.cur.Load(); p != nil {
		next = p.clone()
	}
	if !fn(&next) {
		return
	}
	next.Version++
	next.PublishedAt = s.clock()
	s.cur.Store(&next)
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func reason(out github.Outcome) string {
	switch out.Kind {
	case github.KindUnauthorized:
		return "GitHub rejected the token (check GITHUB_TOKEN)"
	case github.KindNotFound:
		return "GitHub user not found (check GITHUB_USER)"
	case github.KindRateLimited:
		if !out.RetryAfter.IsZero() {
			return "rate limited until " + out.RetryAfter.Local().Format("15:04:05")
		}
		return "rate limited"
	}
	if out.Err != nil {
		return out.Err.Error()
	}
	return out.Kind.String()
}
