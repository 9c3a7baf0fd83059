// Package logtail manages controldeck's log file.
//
// The dashboard owns the terminal, so the standard logger is redirected to a
// file opened with Open (rotated to <path>.1 past a few megabytes). The Logs
// page reads it back with Read, which keeps only the last N lines in a ring
// buffer so memory stays bounded however large the file grows:
//
//	lines, err := logtail.Read(cfg.LogPath, 400)
//
// Classify sorts lines into info, warn and error by their wording so the UI
// can color them. It is a heuristic over messages this program writes, not a
// parser for arbitrary log formats.
package logtail
