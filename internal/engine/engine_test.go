package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/poller"
	"github.com/five82/controldeck/internal/state"
	"github.com/five82/controldeck/internal/sysstats"
)

// scriptFetcher hands out outcomes in order and blocks when the script runs
// dry, so only the steps a test asks for ever happen.
type scriptFetcher struct {
	mu    sync.Mutex
	calls int
	next  chan github.Outcome
}

func newScript() *scriptFetcher {
	return &scriptFetcher{next: make(chan github.Outcome, 8)}
}

func (f *scriptFetcher) Fetch(ctx context.Context) github.Outcome {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return <-f.next
}

func (f *scriptFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func starsBundle(stars int, eventIDs ...string) github.Bundle {
	now := time.Now().UTC().Truncate(time.Second)
	b := github.Bundle{
		Profile: github.Profile{Login: "octo"},
		Repos:   []github.Repo{{Name: "a", FullName: "octo/a", Stars: stars}},
		Stats:   github.Stats{Stars: stars, Repos: 1},
	}
	for i, id := range eventIDs {
		b.Events = append(b.Events, github.Event{ID: id, Type: "PushEvent", CreatedAt: now.Add(-time.Duration(i) * time.Minute)})
	}
	return b
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

type harness struct {
	engine  *Engine
	fetcher *scriptFetcher
	cache   *cache.Store
	cancel  context.CancelFunc
	done    chan error
}

func startEngine(t *testing.T, cachePath string) *harness {
	t.Helper()
	f := newScript()
	c := cache.New(cachePath)
	e := New(&state.Store{}, c, poller.New(f, time.Hour))
	e.Load()

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{engine: e, fetcher: f, cache: c, cancel: cancel, done: make(chan error, 1)}
	go func() { h.done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		// Unblock a fetch the test left waiting.
		f.next <- github.Failure(errors.New("test over"))
		<-h.done
	})
	return h
}

// step waits for the next fetch to begin, answers it, and waits for the
// result to be applied.
func (h *harness) step(t *testing.T, o github.Outcome) state.Snapshot {
	t.Helper()
	before := h.engine.Snapshot().Version
	waitFor(t, "fetch started", func() bool { return h.engine.Snapshot().Fetching })
	h.fetcher.next <- o
	waitFor(t, "outcome applied", func() bool {
		snap := h.engine.Snapshot()
		return snap.Version > before && !snap.Fetching
	})
	return h.engine.Snapshot()
}

func TestEngine_RefreshScenarioPersistsCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	h := startEngine(t, path)

	if got := h.engine.Snapshot().State; got != state.Empty && got != state.Refreshing {
		t.Fatalf("initial state = %v, want Empty", got)
	}

	snap := h.step(t, github.Success(starsBundle(10), time.Now()))
	if snap.State != state.Fresh || snap.Stats.Stars != 10 {
		t.Fatalf("after success: state=%v stars=%d", snap.State, snap.Stats.Stars)
	}
	waitFor(t, "cache write", func() bool {
		env := h.cache.Load()
		return env != nil && env.Stats.Stars == 10
	})

	h.engine.RequestRefresh()
	snap = h.step(t, github.Failure(&github.FetchError{Kind: github.KindTransient, Err: errors.New("connection reset")}))
	if snap.State != state.StaleError || snap.Stats.Stars != 10 {
		t.Fatalf("after failure: state=%v stars=%d", snap.State, snap.Stats.Stars)
	}

	h.engine.RequestRefresh()
	snap = h.step(t, github.Success(starsBundle(12), time.Now()))
	if snap.State != state.Fresh || snap.Stats.Stars != 12 {
		t.Fatalf("after recovery: state=%v stars=%d", snap.State, snap.Stats.Stars)
	}
	waitFor(t, "cache update", func() bool {
		env := h.cache.Load()
		return env != nil && env.Stats.Stars == 12
	})
}

func TestEngine_LoadsCacheBeforeFirstFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	env := cache.Envelope{Stats: github.Stats{Stars: 7}, Repos: []github.Repo{{Name: "a", Stars: 7}}}
	if err := cache.New(path).Save(env); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := New(&state.Store{}, cache.New(path), poller.New(newScript(), time.Hour))
	if got := e.Load(); got != state.Cached {
		t.Fatalf("Load = %v, want Cached", got)
	}
	if got := e.Snapshot().Stats.Stars; got != 7 {
		t.Fatalf("stars = %d, want 7 from cache", got)
	}
}

func TestEngine_CorruptCacheStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	e := New(&state.Store{}, cache.New(path), poller.New(newScript(), time.Hour))
	if got := e.Load(); got != state.Empty {
		t.Fatalf("Load = %v, want Empty", got)
	}
}

func TestEngine_UnwritableCacheStaysInMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h := startEngine(t, filepath.Join(blocker, "cache.json"))

	snap := h.step(t, github.Success(starsBundle(3), time.Now()))
	if snap.State != state.Fresh || snap.Stats.Stars != 3 {
		t.Fatalf("state=%v stars=%d, want Fresh/3 despite cache failure", snap.State, snap.Stats.Stars)
	}
}

func TestEngine_RequestRefreshIsSingleSlot(t *testing.T) {
	e := New(&state.Store{}, nil, poller.New(newScript(), time.Hour))
	if !e.RequestRefresh() {
		t.Fatalf("first RequestRefresh = false")
	}
	if e.RequestRefresh() {
		t.Fatalf("second RequestRefresh = true, want coalesced")
	}
}

func TestEngine_SnapshotDoesNotWaitOnFetch(t *testing.T) {
	h := startEngine(t, filepath.Join(t.TempDir(), "cache.json"))
	waitFor(t, "fetch in flight", func() bool { return h.fetcher.count() == 1 })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.engine.Snapshot()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Snapshot blocked while a fetch was in flight")
	}
}

func TestEngine_MarkRenderedAndSystem(t *testing.T) {
	h := startEngine(t, filepath.Join(t.TempDir(), "cache.json"))
	snap := h.step(t, github.Success(starsBundle(1, "2", "1"), time.Now()))
	if snap.NewEvents() != 2 {
		t.Fatalf("NewEvents = %d, want 2", snap.NewEvents())
	}

	h.engine.MarkRendered([]string{"2", "1"})
	waitFor(t, "novelty cleared", func() bool { return h.engine.Snapshot().NewEvents() == 0 })

	h.engine.System() <- sysstats.Sample{Hostname: "box"}
	waitFor(t, "system sample", func() bool { return h.engine.Snapshot().System.Hostname == "box" })
}

func TestEngine_ShutdownAppliesInFlightFetchAndFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	f := newScript()
	c := cache.New(path)
	e := New(&state.Store{}, c, poller.New(f, time.Hour))
	e.Load()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	waitFor(t, "fetch in flight", func() bool { return f.count() == 1 })
	cancel()
	f.next <- github.Success(starsBundle(21), time.Now())

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if got := e.Snapshot().Stats.Stars; got != 21 {
		t.Fatalf("stars = %d, want in-flight result applied", got)
	}
	if env := c.Load(); env == nil || env.Stats.Stars != 21 {
		t.Fatalf("cache = %#v, want flushed stars=21", env)
	}
}

func TestPersister_LatestWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	p := newPersister(cache.New(path))
	for i := 1; i <= 20; i++ {
		p.submit(cache.Envelope{Stats: github.Stats{Stars: i}})
	}
	p.close()

	env := cache.New(path).Load()
	if env == nil || env.Stats.Stars != 20 {
		t.Fatalf("cache = %#v, want last submission", env)
	}
}
