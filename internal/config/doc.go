// Package config resolves controldeck's runtime settings.
//
// # Sources
//
// Load merges, in increasing priority:
//
//  1. Built-in defaults
//  2. ~/.config/controldeck/config.toml (or the path given with --config)
//  3. A .env file in the working directory (never overrides the environment)
//  4. Environment variables
//
// Command-line flags are applied on top by the caller.
//
// # Settings
//
//	config.toml      environment                  default
//	user             GITHUB_USER                  (required)
//	token            GITHUB_TOKEN                 anonymous access
//	refresh_secs     CONTROLDECK_REFRESH_SECS     60 (minimum 10)
//	reduced_motion   CONTROLDECK_REDUCED_MOTION   false
//	cache_path       CONTROLDECK_CACHE_PATH       see below
//	log_path                                      ~/.local/state/controldeck/controldeck.log
//	api_base_url                                  https://api.github.com/
//
// # Cache location
//
// Unless a path is given, the cache lives at
// $XDG_CONFIG_HOME/controldeck/cache.json (~/.config on Linux when unset).
// If that directory cannot be created the cache falls back to
// ./controldeck-cache.json.
//
// # Example
//
//	user = "octocat"
//	refresh_secs = 120
//	reduced_motion = true
package config
