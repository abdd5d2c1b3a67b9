package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deltacomp/deltac/internal/config"
)

func TestDefaultConfigUsedWhenNothingPresent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, sources, err := config.Load(dir, "", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.DefaultConfig()
	if cfg != want {
		t.Fatalf("cfg = %+v, want default %+v", cfg, want)
	}
	if sources.Global != "" || sources.Project != "" {
		t.Fatalf("sources = %+v, want both empty", sources)
	}
}

func TestProjectConfigOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{
		// trailing comma and comments are valid JSONC
		"seed_len": 32,
		"policy": "constant",
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, sources, err := config.Load(dir, "", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SeedLen != 32 {
		t.Errorf("SeedLen = %d, want 32", cfg.SeedLen)
	}
	if cfg.Policy != "constant" {
		t.Errorf("Policy = %q, want %q", cfg.Policy, "constant")
	}
	if cfg.TableSize != config.DefaultConfig().TableSize {
		t.Errorf("TableSize = %d, want untouched default", cfg.TableSize)
	}
	if sources.Project != path {
		t.Errorf("sources.Project = %q, want %q", sources.Project, path)
	}
}

func TestGlobalConfigOverriddenByProjectConfig(t *testing.T) {
	t.Parallel()

	xdgDir := t.TempDir()
	globalPath := filepath.Join(xdgDir, "dlt", "config.json")
	if err := os.MkdirAll(filepath.Dir(globalPath), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(globalPath, []byte(`{"seed_len": 8, "policy": "localmin"}`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	projDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projDir, config.ConfigFileName), []byte(`{"policy": "constant"}`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env := []string{"XDG_CONFIG_HOME=" + xdgDir}
	cfg, _, err := config.Load(projDir, "", env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SeedLen != 8 {
		t.Errorf("SeedLen = %d, want 8 (from global)", cfg.SeedLen)
	}
	if cfg.Policy != "constant" {
		t.Errorf("Policy = %q, want %q (project overrides global)", cfg.Policy, "constant")
	}
}

func TestExplicitConfigPathMustExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, _, err := config.Load(dir, filepath.Join(dir, "missing.json"), nil)
	if err == nil {
		t.Fatalf("Load with a missing explicit --config path did not error")
	}
}

func TestInvalidJSONRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{not json`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := config.Load(dir, "", nil); err == nil {
		t.Fatalf("Load accepted invalid JSON")
	}
}

func TestExplicitZeroSeedLenIsTreatedAsUnset(t *testing.T) {
	t.Parallel()

	// merge only overrides a field when the override value is non-zero,
	// so an explicit "seed_len": 0 is indistinguishable from an absent
	// key and the built-in default survives.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{"seed_len": 0}`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, _, err := config.Load(dir, "", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SeedLen != config.DefaultConfig().SeedLen {
		t.Fatalf("SeedLen = %d, want default %d", cfg.SeedLen, config.DefaultConfig().SeedLen)
	}
}
