package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points HOME, XDG_CONFIG_HOME and the working directory at temp
// dirs and clears the variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{EnvUser, EnvToken, EnvRefreshSecs, EnvReducedMotion, EnvCachePath} {
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

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RefreshEvery != 60*time.Second {
		t.Fatalf("RefreshEvery = %v, want 60s", cfg.RefreshEvery)
	}
	if cfg.ReducedMotion {
		t.Fatalf("ReducedMotion = true, want false")
	}
	wantCache := filepath.Join(home, ".config", "controldeck", "cache.json")
	if cfg.CachePath != wantCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, wantCache)
	}
	wantLog, err := expandPath(defaultLogPath)
	if err != nil {
		t.Fatalf("expandPath(defaultLogPath) returned error: %v", err)
	}
	if cfg.LogPath != wantLog {
		t.Fatalf("LogPath = %q, want %q", cfg.LogPath, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
user = "  octo  "
token = " t0ken "
refresh_secs = 120
reduced_motion = true
cache_path = "~/cache/deck.json"
log_path = "~/logs/deck.log"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.User != "octo" || cfg.Token != "t0ken" || !cfg.HasToken() {
		t.Fatalf("user/token = %q/%q", cfg.User, cfg.Token)
	}
	if cfg.RefreshEvery != 2*time.Minute || !cfg.ReducedMotion {
		t.Fatalf("refresh=%v reduced=%v", cfg.RefreshEvery, cfg.ReducedMotion)
	}
	if cfg.CachePath != filepath.Join(home, "cache", "deck.json") {
		t.Fatalf("CachePath = %q", cfg.CachePath)
	}
	if !strings.HasPrefix(cfg.LogPath, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", cfg.LogPath, home)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("user = \"file-user\"\nrefresh_secs = 300\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvUser, "env-user")
	t.Setenv(EnvRefreshSecs, "3")
	t.Setenv(EnvReducedMotion, "1")
	t.Setenv(EnvCachePath, filepath.Join(t.TempDir(), "c.json"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.User != "env-user" {
		t.Fatalf("User = %q, want env-user", cfg.User)
	}
	if cfg.RefreshEvery != minRefreshSecs*time.Second {
		t.Fatalf("RefreshEvery = %v, want clamped to %ds", cfg.RefreshEvery, minRefreshSecs)
	}
	if !cfg.ReducedMotion {
		t.Fatalf("ReducedMotion = false, want true from env")
	}
	if filepath.Base(cfg.CachePath) != "c.json" {
		t.Fatalf("CachePath = %q, want env override", cfg.CachePath)
	}
}

func TestLoad_ReadsDotenv(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".env", []byte("GITHUB_USER=dotenv-user\nGITHUB_TOKEN=abc\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// godotenv sets variables directly; restore them when the test ends.
	t.Setenv(EnvUser, "")
	t.Setenv(EnvToken, "")
	os.Unsetenv(EnvUser)
	os.Unsetenv(EnvToken)

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.User != "dotenv-user" || cfg.Token != "abc" {
		t.Fatalf("user/token = %q/%q, want values from .env", cfg.User, cfg.Token)
	}
}

func TestLoad_InvalidRefreshFails(t *testing.T) {
	isolate(t)
	t.Setenv(EnvRefreshSecs, "soon")

	_, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	var cfgErr *Error
	if !errors.As(err, &cfgErr) || cfgErr.Field != EnvRefreshSecs {
		t.Fatalf("Load error = %v, want Error for %s", err, EnvRefreshSecs)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`user = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{name: "ok", cfg: Config{User: "octo", RefreshEvery: time.Minute}},
		{name: "missing user", cfg: Config{User: "  ", RefreshEvery: time.Minute}, field: EnvUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Fatalf("Validate error = %v, want field %s", err, tt.field)
			}
		})
	}
}

func TestResolveCachePath_FallsBackToWorkingDir(t *testing.T) {
	home := isolate(t)
	blocker := filepath.Join(home, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", blocker)

	got := ResolveCachePath("")
	if got != filepath.Join(".", fallbackCachePath) {
		t.Fatalf("ResolveCachePath = %q, want ./%s", got, fallbackCachePath)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestApply_OverridesWin(t *testing.T) {
	home := isolate(t)

	cfg := Config{RefreshEvery: 60 * time.Second, CachePath: "/tmp/from-env.json"}
	cfg.Apply(Overrides{})
	if cfg.RefreshEvery != 60*time.Second || cfg.ReducedMotion || cfg.CachePath != "/tmp/from-env.json" {
		t.Fatalf("empty overrides changed config: %#v", cfg)
	}

	cfg.Apply(Overrides{RefreshSecs: 3, ReducedMotion: true, CachePath: "~/deck.json"})
	if cfg.RefreshEvery != 10*time.Second {
		t.Fatalf("RefreshEvery = %v, want clamped 10s", cfg.RefreshEvery)
	}
	if !cfg.ReducedMotion {
		t.Fatalf("ReducedMotion = false, want true")
	}
	if want := filepath.Join(home, "deck.json"); cfg.CachePath != want {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, want)
	}
}
