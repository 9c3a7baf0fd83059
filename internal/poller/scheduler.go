// Package poller decides when the dashboard fetches from GitHub. It never
// touches application state: every attempt and its outcome is reported as an
// Event for the engine to apply.
package poller

import (
	"context"
	"log"
	"time"

	"github.com/five82/controldeck/internal/github"
)

// DefaultInterval is the automatic refresh cadence when none is configured.
const DefaultInterval = 60 * time.Second

// EventKind identifies what an Event reports.
type EventKind int

const (
	// Started is sent just before the fetcher is called.
	Started EventKind = iota
	// Finished carries the fetch outcome.
	Finished
	// Deferred reports a manual refresh postponed by a rate limit. The
	// refresh runs by itself at Until.
	Deferred
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Finished:
		return "finished"
	case Deferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Event is one scheduler notification.
type Event struct {
	Kind    EventKind
	Manual  bool
	Outcome github.Outcome
	Until   time.Time
}

// Scheduler runs fetches on a timer and on manual request, one at a time.
type Scheduler struct {
	fetcher  github.Fetcher
	interval time.Duration

	jitter func(time.Duration) time.Duration
	now    func() time.Time
}

// New returns a Scheduler that calls fetcher every interval.
func New(fetcher github.Fetcher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		fetcher:  fetcher,
		interval: interval,
		jitter:   withJitter,
		now:      time.Now,
	}
}

// plan is the scheduler's bookkeeping between fetches.
type plan struct {
	// next is the next automatic fetch; zero while automatic fetching is off.
	next      time.Time
	failures  int
	suspended time.Time
	// deferred is set when a manual trigger arrived during suspension.
	deferred     bool
	unauthorized bool
}

// wake returns when the loop next has work to do, or zero for never.
func (p *plan) wake() time.Time {
	w := p.next
	if p.deferred && (w.IsZero() || p.suspended.Before(w)) {
		w = p.suspended
	}
	return w
}

// settle updates p after an outcome observed at now.
func (s *Scheduler) settle(p *plan, o github.Outcome, now time.Time) {
	switch o.Kind {
	case github.KindSuccess:
		p.failures = 0
		p.unauthorized = false
		p.suspended = time.Time{}
		p.next = now.Add(s.interval)
	case github.KindRateLimited:
		until := o.RetryAfter
		if !until.After(now) {
			until = now.Add(s.interval)
		}
		p.suspended = until
		p.next = until
		if regular := now.Add(s.interval); regular.After(until) {
			p.next = regular
		}
	case github.KindUnauthorized:
		p.unauthorized = true
	default:
		p.failures++
		p.next = now.Add(s.jitter(calculateBackoff(p.failures, s.interval)))
	}
	if p.unauthorized {
		p.next = time.Time{}
	}
}

// Run fetches immediately, then on the timer and whenever trigger fires,
// until ctx is cancelled. Triggers that arrive while a fetch is in flight
// are dropped. On cancellation Run waits for the in-flight fetch, reports
// it, and closes out. The consumer must drain out until it is closed.
func (s *Scheduler) Run(ctx context.Context, trigger <-chan struct{}, out chan<- Event) {
	defer close(out)

	// Fetches are never aborted by shutdown; the fetcher bounds them itself.
	fetchCtx := context.WithoutCancel(ctx)
	results := make(chan github.Outcome, 1)
	inFlight := false
	var p plan

	fire := func(manual bool) {
		inFlight = true
		out <- Event{Kind: Started, Manual: manual}
		go func() {
			o := s.fetcher.Fetch(fetchCtx)
			o.Manual = manual
			results <- o
		}()
	}

	finish := func(o github.Outcome) {
		inFlight = false
		s.settle(&p, o, s.now())
		out <- Event{Kind: Finished, Manual: o.Manual, Outcome: o}
		switch {
		case o.OK():
		case p.unauthorized:
			log.Printf("poller: %v; automatic refresh paused until a manual refresh succeeds", o.Err)
		case o.Kind == github.KindRateLimited:
			log.Printf("poller: rate limited until %s", p.suspended.Format(time.RFC3339))
		default:
			log.Printf("poller: fetch failed (%d in a row), next attempt %s: %v",
				p.failures, p.next.Format(time.RFC3339), o.Err)
		}
	}

	timer := time.NewTimer(s.interval)
	timer.Stop()
	defer timer.Stop()

	fire(false)
	for {
		var wakeC <-chan time.Time
		if !inFlight {
			if w := p.wake(); !w.IsZero() {
				timer.Reset(max(w.Sub(s.now()), 0))
				wakeC = timer.C
			}
		}

		select {
		case <-ctx.Done():
			if inFlight {
				finish(<-results)
			}
			return

		case o := <-results:
			finish(o)

		case <-trigger:
			now := s.now()
			switch {
			case inFlight:
				log.Printf("poller: manual refresh coalesced into in-flight fetch")
			case now.Before(p.suspended):
				p.deferred = true
				out <- Event{Kind: Deferred, Manual: true, Until: p.suspended}
			default:
				fire(true)
			}

		case <-wakeC:
			now := s.now()
			switch {
			case p.deferred && !now.Before(p.suspended):
				p.deferred = false
				fire(true)
			case p.next.IsZero() || now.Before(p.next):
				// Woken early for a deferred refresh that is not due yet.
			case now.Before(p.suspended):
				p.next = p.suspended
			default:
				fire(false)
			}
		}
	}
}
