// Package engine ties the scheduler, the shared state and the cache
// together. It is the only writer of the state store; everything else reads
// snapshots.
package engine

import (
	"context"
	"log"

	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/poller"
	"github.com/five82/controldeck/internal/state"
	"github.com/five82/controldeck/internal/sysstats"
)

// Engine owns the refresh lifecycle of the dashboard.
type Engine struct {
	store *state.Store
	cache *cache.Store
	sched *poller.Scheduler

	trigger  chan struct{}
	system   chan sysstats.Sample
	rendered chan []string
}

// New builds an Engine. A nil cache runs memory-only.
func New(store *state.Store, cacheStore *cache.Store, sched *poller.Scheduler) *Engine {
	return &Engine{
		store:    store,
		cache:    cacheStore,
		sched:    sched,
		trigger:  make(chan struct{}, 1),
		system:   make(chan sysstats.Sample, 1),
		rendered: make(chan []string, 8),
	}
}

// Load seeds the store from the cache and returns the resulting state. Call
// it once before the first frame.
func (e *Engine) Load() state.SyncState {
	var env *cache.Envelope
	if e.cache != nil {
		env = e.cache.Load()
	}
	e.store.Seed(env)
	snap := e.store.Snapshot()
	log.Printf("engine: starting %s (last fetched %s)", snap.State, snap.LastFetched.Format("2006-01-02 15:04:05"))
	return snap.State
}

// Snapshot returns the latest published snapshot without blocking.
func (e *Engine) Snapshot() state.Snapshot {
	return e.store.Snapshot()
}

// RequestRefresh asks for a manual fetch. It never blocks; false means a
// request is already pending.
func (e *Engine) RequestRefresh() bool {
	select {
	case e.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// MarkRendered reports event ids that have been drawn. It never blocks; a
// dropped call is retried by the next frame because the events stay new.
func (e *Engine) MarkRendered(ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	select {
	case e.rendered <- ids:
		return true
	default:
		return false
	}
}

// System returns the channel local metric samples are delivered on.
func (e *Engine) System() chan<- sysstats.Sample {
	return e.system
}

// Run drives the scheduler and applies what it reports until ctx is
// cancelled and the in-flight fetch, if any, has been applied. Pending cache
// writes are flushed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	events := make(chan poller.Event)
	go e.sched.Run(ctx, e.trigger, events)

	p := newPersister(e.cache)
	defer p.close()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				log.Printf("engine: stopped")
				return nil
			}
			e.handle(ev, p)
		case sample := <-e.system:
			e.store.SetSystem(sample)
		case ids := <-e.rendered:
			e.store.MarkRendered(ids)
		}
	}
}

func (e *Engine) handle(ev poller.Event, p *persister) {
	switch ev.Kind {
	case poller.Started:
		e.store.BeginRefresh(ev.Manual)
	case poller.Deferred:
		e.store.Defer(ev.Until)
		log.Printf("engine: manual refresh deferred until %s", ev.Until.Format("15:04:05"))
	case poller.Finished:
		o := ev.Outcome
		changed := e.store.Apply(o)
		snap := e.store.Snapshot()
		if o.OK() {
			log.Printf("engine: fetch %s applied, state %s, changed=%t", o.AttemptID, snap.State, changed)
		} else {
			log.Printf("engine: fetch %s failed (%s), state %s", o.AttemptID, o.Kind, snap.State)
		}
		if changed {
			p.submit(e.store.Envelope())
		}
	}
}
