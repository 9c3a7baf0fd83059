package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which dashboard panels stack.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width for the extra repository columns.
	LayoutWideWidth = 130
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines kept for the Logs page.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// FrameInterval paces the render loop at 30 frames per second.
	FrameInterval = time.Second / 30

	// LogRefreshInterval is how often the Logs page rereads the log file.
	LogRefreshInterval = time.Second

	// GlowDuration is how long a fresh event stays highlighted.
	GlowDuration = 4 * time.Second
)

// minActivity is the fewest feed rows worth drawing a dashboard panel for.
const minActivity = 3
