package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/config"
	"github.com/five82/controldeck/internal/engine"
	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/logtail"
	"github.com/five82/controldeck/internal/poller"
	"github.com/five82/controldeck/internal/prefs"
	"github.com/five82/controldeck/internal/state"
	"github.com/five82/controldeck/internal/sysstats"
	"github.com/five82/controldeck/internal/ui"
)

// Options configure a controldeck run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/controldeck/prefs.toml
	Overrides  config.Overrides
}

// LoadConfig resolves the configuration, applies command-line overrides and
// validates the result.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.Apply(opts.Overrides)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// NewEngine wires the GitHub client, scheduler, state store and cache for
// cfg. The engine is not seeded or started.
func NewEngine(cfg config.Config) (*engine.Engine, error) {
	var clientOpts []github.Option
	if cfg.APIBaseURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(cfg.APIBaseURL))
	}
	client, err := github.NewClient(cfg.Token, cfg.User, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init github client: %w", err)
	}
	sched := poller.New(client, cfg.RefreshEvery)
	return engine.New(&state.Store{}, cache.New(cfg.CachePath), sched), nil
}

// Run boots the dashboard and blocks until the user quits or ctx is
// cancelled. The engine is given the chance to finish an in-flight fetch and
// flush the cache before Run returns.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logFile, err := logtail.Open(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	log.SetOutput(logFile)
	defer log.SetOutput(os.Stderr)

	log.Printf("app: starting for %s (refresh every %s, authenticated=%t, cache %s)",
		cfg.User, cfg.RefreshEvery, cfg.HasToken(), cfg.CachePath)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = cfg.PrefsPath()
	}
	userPrefs := prefs.Load(prefsPath)

	eng, err := NewEngine(cfg)
	if err != nil {
		return err
	}
	eng.Load()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()
	go sysstats.Run(runCtx, sysstats.NewSampler(), sysstats.DefaultInterval, eng.System())

	uiErr := ui.Run(ui.Options{
		Context:       runCtx,
		Source:        eng,
		User:          cfg.User,
		ThemeName:     userPrefs.Theme,
		StartPage:     userPrefs.StartPage,
		PrefsPath:     prefsPath,
		LogPath:       cfg.LogPath,
		ReducedMotion: cfg.ReducedMotion,
		RefreshEvery:  cfg.RefreshEvery,
	})

	cancel()
	if err := <-done; err != nil {
		log.Printf("app: engine stopped with error: %v", err)
	}
	log.Printf("app: stopped")
	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	return nil
}
