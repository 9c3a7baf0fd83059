package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/five82/controldeck/internal/github"
)

// SchemaVersion is the only on-disk layout this build reads or writes.
const SchemaVersion = 1

// ErrSchemaMismatch marks a cache written by an incompatible build.
var ErrSchemaMismatch = errors.New("cache schema mismatch")

// ErrChecksum marks a cache whose payload does not match its recorded digest.
var ErrChecksum = errors.New("cache checksum mismatch")

// IOError wraps a filesystem or encoding failure on the cache file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Envelope is the persisted form of the dashboard's remote data.
type Envelope struct {
	SchemaVersion int              `json:"-"`
	Profile       *github.Profile  `json:"profile,omitempty"`
	Stats         github.Stats     `json:"stats"`
	Repos         []github.Repo    `json:"repos"`
	Events        []github.Event   `json:"events"`
	RateLimit     github.RateLimit `json:"rate_limit"`
	LastFetched   time.Time        `json:"last_fetched"`
}

// HasData reports whether the envelope carries anything worth rendering.
func (e Envelope) HasData() bool {
	return e.Profile != nil || len(e.Repos) > 0 || len(e.Events) > 0 || e.Stats != (github.Stats{})
}
