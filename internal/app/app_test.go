package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/config"
	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/state"
)

var now = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{config.EnvUser, config.EnvToken, config.EnvRefreshSecs, config.EnvReducedMotion, config.EnvCachePath} {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func writeCache(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	env := cache.Envelope{
		Profile: &github.Profile{Login: "octo", Followers: 3},
		Stats:   github.Stats{Stars: 1234, Forks: 7, Repos: 2, Followers: 3},
		Repos: []github.Repo{
			{Name: "alpha", Stars: 1200, Forks: 7, Language: "Go", PushedAt: now.Add(-time.Hour)},
			{Name: "beta", Stars: 34, Language: "Rust", PushedAt: now.Add(-2 * time.Hour)},
		},
		Events: []github.Event{
			{ID: "1", Type: "PushEvent", Actor: "octo", RepoName: "octo/alpha", CreatedAt: now.Add(-time.Minute)},
		},
		RateLimit:   github.RateLimit{Limit: 5000, Remaining: 4990},
		LastFetched: now.Add(-time.Minute),
	}
	if err := cache.New(path).Save(env); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestLoadConfig_RequiresUser(t *testing.T) {
	home := isolate(t)

	_, err := LoadConfig(Options{ConfigPath: filepath.Join(home, "missing.toml")})
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("LoadConfig error = %v, want *config.Error", err)
	}
	if cfgErr.Field != config.EnvUser {
		t.Fatalf("config.Error.Field = %q, want %q", cfgErr.Field, config.EnvUser)
	}
}

func TestLoadConfig_AppliesOverrides(t *testing.T) {
	home := isolate(t)
	t.Setenv(config.EnvUser, "octo")
	t.Setenv(config.EnvRefreshSecs, "300")

	cfg, err := LoadConfig(Options{
		ConfigPath: filepath.Join(home, "missing.toml"),
		Overrides:  config.Overrides{RefreshSecs: 30, ReducedMotion: true},
	})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.User != "octo" {
		t.Fatalf("User = %q, want octo", cfg.User)
	}
	if cfg.RefreshEvery != 30*time.Second {
		t.Fatalf("RefreshEvery = %v, want flag value 30s", cfg.RefreshEvery)
	}
	if !cfg.ReducedMotion {
		t.Fatalf("ReducedMotion = false, want true from flag")
	}
}

func TestNewEngine_SeedsFromCache(t *testing.T) {
	path := writeCache(t)
	eng, err := NewEngine(config.Config{User: "octo", RefreshEvery: time.Minute, CachePath: path})
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	if got := eng.Load(); got != state.Cached {
		t.Fatalf("Load = %v, want cached", got)
	}
	snap := eng.Snapshot()
	if snap.Stats.Stars != 1234 || len(snap.Spotlight) != 2 {
		t.Fatalf("snapshot = %#v, want cached stats and spotlight", snap)
	}
}

func TestNewEngine_RequiresUser(t *testing.T) {
	if _, err := NewEngine(config.Config{RefreshEvery: time.Minute}); err == nil {
		t.Fatalf("NewEngine returned nil error without a user")
	}
}

func TestCachedSnapshot_Missing(t *testing.T) {
	_, err := CachedSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("CachedSnapshot error = %v, want ErrNotExist", err)
	}
}

func TestWriteStatus(t *testing.T) {
	snap, err := CachedSnapshot(writeCache(t))
	if err != nil {
		t.Fatalf("CachedSnapshot: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteStatus(&buf, snap, now); err != nil {
		t.Fatalf("WriteStatus returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"cached, updated 1 minute ago", "octo", "1,234", "alpha", "REPOSITORY", "pushed to", "4990/5000 left"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "alpha") > strings.Index(out, "beta") {
		t.Fatalf("spotlight not ordered by stars:\n%s", out)
	}
}

func TestWriteStatus_NoData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatus(&buf, state.Snapshot{}, now); err != nil {
		t.Fatalf("WriteStatus returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "No cached data.") {
		t.Fatalf("output = %q, want no-data notice", buf.String())
	}
}

func TestWriteStatusJSON(t *testing.T) {
	snap, err := CachedSnapshot(writeCache(t))
	if err != nil {
		t.Fatalf("CachedSnapshot: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteStatusJSON(&buf, snap); err != nil {
		t.Fatalf("WriteStatusJSON returned error: %v", err)
	}
	var doc struct {
		State string `json:"state"`
		Stats struct {
			Stars int `json:"stars"`
		} `json:"stats"`
		Spotlight []struct {
			Name string `json:"name"`
		} `json:"spotlight"`
	}
	if err := jsoniter.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if doc.State != "cached" || doc.Stats.Stars != 1234 || len(doc.Spotlight) != 2 || doc.Spotlight[0].Name != "alpha" {
		t.Fatalf("decoded status = %#v", doc)
	}
}
