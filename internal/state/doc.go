// Package state holds the dashboard's single authoritative model and the
// rules for merging fetch outcomes into it.
//
// # Publishing
//
// Store is written by one goroutine (the engine) and read by many (the render
// loop, the status command). Every write builds a complete new Snapshot from a
// copy of the current one and publishes it through an atomic pointer, so a
// reader never observes half of a merge and never waits on a writer:
//
//	engine goroutine              render loop (30 FPS)
//	┌──────────────────┐          ┌──────────────────┐
//	│ store.Apply(out) │          │ store.Snapshot() │
//	│   copy current   │          │   atomic load    │
//	│   merge          │─────────→│   deep copy      │
//	│   publish        │ (atomic) │   draw           │
//	└──────────────────┘          └──────────────────┘
//
// Snapshot returns a deep copy; callers may keep or modify it freely.
//
// # Sync states
//
//	Empty ──seed──→ Cached ──begin──→ Refreshing ──ok──→ Fresh
//	                                      │
//	                                      ├──fail, data──→ StaleError
//	                                      ├──fail, none──→ Error
//	                                      └──401───────→ Unauthorized
//
// Fresh, Cached, StaleError and Error may all begin a new refresh.
// Unauthorized is left only by a successful fetch. A refresh started from
// Unauthorized does not pass through Refreshing; the state stays Unauthorized
// and Snapshot.Fetching marks the attempt.
//
// # Merge rules
//
// A successful outcome replaces profile, stats and repositories wholesale.
// Activity events are merged instead: keyed by id, an incoming event replaces
// the held one, held events missing from the incoming set are kept, and the
// result is ordered newest first and capped at MaxEvents. Ids never seen
// before are flagged New until MarkRendered clears them.
//
// Failures keep every piece of data and only update LastError (and
// RetryAfter for rate limits).
//
// Apply reports whether anything a user would see changed. Fetch timestamps,
// rate-limit counters and novelty flags do not count; the engine uses the
// result to skip redundant cache writes.
package state
