// Package ui is the controldeck terminal dashboard, built on Bubble Tea.
//
// The render loop never waits on the network. A frame tick fires 30 times a
// second; each frame reads the engine's latest published snapshot and draws
// it. Refresh requests and render acknowledgements go back to the engine
// through non-blocking calls on Source.
//
// # Pages
//
//   - Dashboard: profile and counters, system meters, spotlight, recent activity
//   - Repositories: every owned repository, filterable with "/"
//   - Activity: the full merged event feed
//   - Logs: the tail of the controldeck log file
//
// # Novelty
//
// Events the engine marks as new are highlighted for a few seconds. The
// frame after an event is first drawn, its id is passed to MarkRendered so
// the engine can clear the flag; the highlight itself is tracked locally and
// outlives the flag. Reduced motion swaps the pulse for a static highlight
// and stops the spinner.
//
// # Key Bindings
//
//   - r: refresh now
//   - tab, shift+tab, 1-4: switch page
//   - j/k, g/G, pgup/pgdown: scroll
//   - /: filter repositories
//   - p: pause animation
//   - T: cycle theme
//   - ?: help
//   - q or ctrl+c: quit
package ui
