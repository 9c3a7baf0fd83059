// Package app is the composition root of controldeck.
//
// Run loads the configuration, redirects the standard logger to the log
// file, seeds the engine from the cache and starts three goroutines: the
// engine (which owns the scheduler and the state store), the local metrics
// sampler, and the Bubble Tea program on the calling goroutine.
//
//	config ──► github.Client ──► poller.Scheduler ──► engine.Engine ──► state.Store
//	                                                      ▲    │             │
//	                                 sysstats.Run ────────┘    ▼             ▼
//	                                                      cache file    ui (Snapshot)
//
// When the UI exits, the engine's context is cancelled. The engine lets an
// in-flight fetch finish, applies it, flushes the latest cache write, and
// only then does Run return.
//
// The status helpers render the cached snapshot for the non-interactive
// "controldeck status" command.
package app
