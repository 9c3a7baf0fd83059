package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/controldeck/internal/app"
	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/config"
	"github.com/five82/controldeck/internal/state"
)

var (
	configPath    string
	cachePath     string
	refreshSecs   int
	reducedMotion bool
	outputJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "controldeck",
	Short: "Terminal dashboard for a GitHub account",
	Long: `controldeck shows a GitHub account's profile, repositories and public
activity next to local system metrics, refreshing in the background.

Data from the last successful fetch is cached so the dashboard starts
instantly, even offline.`,
	SilenceUsage: true,
	RunE:         runDashboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the cached dashboard data",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or remove the cache file",
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CachePath)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cache file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := cache.New(cfg.CachePath)
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", store.Path())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/controldeck/config.toml)")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "cache file (overrides CONTROLDECK_CACHE_PATH)")
	rootCmd.Flags().IntVar(&refreshSecs, "refresh", 0, "refresh interval in seconds (minimum 10)")
	rootCmd.Flags().BoolVar(&reducedMotion, "reduced-motion", false, "disable the spinner and highlight pulse")
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	cacheCmd.AddCommand(cachePathCmd, cacheClearCmd)
	rootCmd.AddCommand(statusCmd, cacheCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "controldeck: %v\n", err)
		return 1
	}
	return 0
}

func overrides() config.Overrides {
	return config.Overrides{
		RefreshSecs:   refreshSecs,
		ReducedMotion: reducedMotion,
		CachePath:     cachePath,
	}
}

// loadConfig resolves settings for the commands that do not talk to GitHub,
// so a missing GITHUB_USER is not an error here.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.Apply(overrides())
	return cfg, nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(cmd.ErrOrStderr(), "controldeck: not a terminal, printing cached status instead")
		return runStatus(cmd, args)
	}
	return app.Run(cmd.Context(), app.Options{
		ConfigPath: configPath,
		Overrides:  overrides(),
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, err := app.CachedSnapshot(cfg.CachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(cmd.ErrOrStderr(), "no cache at %s\n", cfg.CachePath)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "ignoring cache at %s: %v\n", cfg.CachePath, err)
		}
		snap = state.Snapshot{}
	}

	if outputJSON {
		return app.WriteStatusJSON(cmd.OutOrStdout(), snap)
	}
	return app.WriteStatus(cmd.OutOrStdout(), snap, time.Now())
}
