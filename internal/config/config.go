package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved runtime configuration.
type Config struct {
	User          string
	Token         string
	APIBaseURL    string
	RefreshEvery  time.Duration
	ReducedMotion bool
	CachePath     string
	LogPath       string
}

const (
	defaultConfigPath  = "~/.config/controldeck/config.toml"
	defaultLogPath     = "~/.local/state/controldeck/controldeck.log"
	defaultRefreshSecs = 60
	minRefreshSecs     = 10
	appDirName         = "controldeck"
	fallbackCachePath  = "controldeck-cache.json"
)

// Environment variables read by Load. They win over the config file.
const (
	EnvUser          = "GITHUB_USER"
	EnvToken         = "GITHUB_TOKEN"
	EnvRefreshSecs   = "CONTROLDECK_REFRESH_SECS"
	EnvReducedMotion = "CONTROLDECK_REDUCED_MOTION"
	EnvCachePath     = "CONTROLDECK_CACHE_PATH"
)

// Error reports an invalid or missing setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

// Load reads the optional TOML file at path (default
// ~/.config/controldeck/config.toml), then a .env file in the working
// directory, then the environment. It does not require GITHUB_USER; call
// Validate before starting the dashboard.
func Load(path string) (Config, error) {
	cfg := Config{
		RefreshEvery: defaultRefreshSecs * time.Second,
		LogPath:      mustExpand(defaultLogPath),
	}

	raw, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyFile(raw); err != nil {
		return Config{}, err
	}

	// A missing .env is normal; existing variables are never overwritten.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.CachePath = ResolveCachePath(cfg.CachePath)
	return cfg, nil
}

// Validate reports the first setting that prevents the dashboard from
// running.
func (c Config) Validate() error {
	if strings.TrimSpace(c.User) == "" {
		return &Error{Field: EnvUser, Message: "GitHub user is required (set GITHUB_USER or user in config.toml)"}
	}
	return nil
}

// Overrides carries command-line flags. Zero fields leave the loaded value
// alone.
type Overrides struct {
	RefreshSecs   int
	ReducedMotion bool
	CachePath     string
}

// Apply layers o over the loaded configuration. Flags win over the
// environment and the config file.
func (c *Config) Apply(o Overrides) {
	if o.RefreshSecs > 0 {
		c.RefreshEvery = clampRefresh(o.RefreshSecs)
	}
	if o.ReducedMotion {
		c.ReducedMotion = true
	}
	if strings.TrimSpace(o.CachePath) != "" {
		c.CachePath = ResolveCachePath(o.CachePath)
	}
}

// HasToken reports whether authenticated requests will be made.
func (c Config) HasToken() bool {
	return c.Token != ""
}

// PrefsPath returns where UI preferences are stored.
func (c Config) PrefsPath() string {
	return mustExpand("~/.config/" + appDirName + "/prefs.toml")
}

type fileConfig struct {
	User          string `toml:"user"`
	Token         string `toml:"token"`
	APIBaseURL    string `toml:"api_base_url"`
	RefreshSecs   int    `toml:"refresh_secs"`
	ReducedMotion bool   `toml:"reduced_motion"`
	CachePath     string `toml:"cache_path"`
	LogPath       string `toml:"log_path"`
}

func readFile(path string) (*fileConfig, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &raw, nil
}

func (c *Config) applyFile(raw *fileConfig) error {
	if raw == nil {
		return nil
	}
	c.User = strings.TrimSpace(raw.User)
	c.Token = strings.TrimSpace(raw.Token)
	c.APIBaseURL = strings.TrimSpace(raw.APIBaseURL)
	c.ReducedMotion = raw.ReducedMotion
	if raw.RefreshSecs != 0 {
		c.RefreshEvery = clampRefresh(raw.RefreshSecs)
	}
	if p := strings.TrimSpace(raw.CachePath); p != "" {
		c.CachePath = p
	}
	if p := strings.TrimSpace(raw.LogPath); p != "" {
		c.LogPath = mustExpand(p)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		c.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRefreshSecs)); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Field: EnvRefreshSecs, Message: fmt.Sprintf("not a number of seconds: %q", v)}
		}
		c.RefreshEvery = clampRefresh(secs)
	}
	if v := strings.TrimSpace(os.Getenv(EnvReducedMotion)); v != "" {
		on, err := strconv.ParseBool(v)
		c.ReducedMotion = err == nil && on
	}
	if v := strings.TrimSpace(os.Getenv(EnvCachePath)); v != "" {
		c.CachePath = v
	}
	return nil
}

func clampRefresh(secs int) time.Duration {
	if secs < minRefreshSecs {
		secs = minRefreshSecs
	}
	return time.Duration(secs) * time.Second
}

// ResolveCachePath returns explicit (expanded) when set. Otherwise it uses
// <user config dir>/controldeck/cache.json, creating the directory, and
// falls back to ./controldeck-cache.json when that is not possible.
func ResolveCachePath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return mustExpand(explicit)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		appDir := filepath.Join(dir, appDirName)
		if err := os.MkdirAll(appDir, 0o755); err == nil {
			return filepath.Join(appDir, "cache.json")
		}
	}
	return filepath.Join(".", fallbackCachePath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
