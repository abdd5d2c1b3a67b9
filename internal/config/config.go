// Package config loads dlt's optional .dlt.json configuration file
// (JSONC via tailscale/hujson) with a default, global, project
// precedence chain. A zero or empty field in a file counts as unset and
// leaves the earlier value in place.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the default project config file name.
const ConfigFileName = ".dlt.json"

// Errors returned while loading configuration.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrSeedLenInvalid     = errors.New("seed_len must be positive")
)

// Config holds the defaults dlt's subcommands fall back to when a
// flag is not given explicitly on the command line.
type Config struct {
	SeedLen   int    `json:"seed_len,omitempty"`
	TableSize uint64 `json:"table_size,omitempty"` //nolint:tagliatelle
	Policy    string `json:"policy,omitempty"`
	Digest    string `json:"digest,omitempty"`
}

// DefaultConfig returns dlt's built-in defaults.
func DefaultConfig() Config {
	return Config{
		SeedLen:   16,
		TableSize: 1048573,
		Policy:    "localmin",
	}
}

// Sources records which config files, if any, were loaded.
type Sources struct {
	Global  string
	Project string
}

func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "dlt", "config.json")
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dlt", "config.json")
	}
	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "dlt", "config.json")
	}
	return ""
}

// Load resolves configuration with the following precedence (each
// step overrides the one before it):
//  1. DefaultConfig
//  2. Global user config (~/.config/dlt/config.json or $XDG_CONFIG_HOME/dlt/config.json)
//  3. Project config (.dlt.json in workDir, or an explicit configPath)
func Load(workDir, configPath string, env []string) (Config, Sources, error) {
	cfg := DefaultConfig()
	var sources Sources

	globalCfg, globalPath, err := loadOptional(getGlobalConfigPath(env))
	if err != nil {
		return Config{}, Sources{}, err
	}
	sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProject(workDir, configPath)
	if err != nil {
		return Config{}, Sources{}, err
	}
	sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if cfg.SeedLen <= 0 {
		return Config{}, Sources{}, ErrSeedLenInvalid
	}
	return cfg, sources, nil
}

func loadProject(workDir, configPath string) (Config, string, error) {
	var path string
	mustExist := configPath != ""

	if mustExist {
		path = configPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		path = filepath.Join(workDir, ConfigFileName)
	}

	return loadOptionalRequired(path, mustExist)
}

func loadOptional(path string) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}
	return loadOptionalRequired(path, false)
}

func loadOptionalRequired(path string, mustExist bool) (Config, string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally caller-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, "", nil
		}
		if mustExist {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}
		return Config{}, "", nil
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, path, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, override Config) Config {
	if override.SeedLen != 0 {
		base.SeedLen = override.SeedLen
	}
	if override.TableSize != 0 {
		base.TableSize = override.TableSize
	}
	if override.Policy != "" {
		base.Policy = override.Policy
	}
	if override.Digest != "" {
		base.Digest = override.Digest
	}
	return base
}
