// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for forge.
//
// Configuration is loaded from a single YAML file specified by:
//   - FORGE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery beyond the built-in
// defaults, which describe a checkout-relative layout. The config
// file is the single source of truth; the only expansion performed is
// ${WORKSPACE_ROOT} and ${HOME} in paths for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for forge.
type Config struct {
	// Workspace configures source and output locations.
	Workspace WorkspaceConfig `yaml:"workspace"`

	// Build configures the shared binary build.
	Build BuildConfig `yaml:"build"`

	// Policy configures the seccomp policy compiler runner.
	Policy PolicyConfig `yaml:"policy"`

	// Snapshot configures the snapshot rebase runner.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// WorkspaceConfig configures source and output locations.
type WorkspaceConfig struct {
	// Root is the Cinder source checkout that cargo builds run in.
	Root string `yaml:"root"`

	// BinariesDir is the shared cargo target directory that cached
	// release binaries live under, laid out as
	// <binaries_dir>/<triple>/release/<name>.
	BinariesDir string `yaml:"binaries_dir"`

	// LockDir holds the flock files that serialize builds across
	// test processes. Must be on a local filesystem shared by all
	// cooperating processes.
	LockDir string `yaml:"lock_dir"`
}

// BuildConfig configures the shared binary build.
type BuildConfig struct {
	// BinaryName is the main executable's file name.
	BinaryName string `yaml:"binary_name"`

	// WardenName is the privilege-separation helper's file name.
	WardenName string `yaml:"warden_name"`

	// WardenPackage is the cargo package that builds the helper.
	WardenPackage string `yaml:"warden_package"`

	// CargoBinary overrides cargo resolution. Empty means resolve
	// via PATH and ~/.cargo/bin.
	CargoBinary string `yaml:"cargo_binary"`

	// StripBinary is the tool used to strip debug symbols.
	StripBinary string `yaml:"strip_binary"`
}

// PolicyConfig configures the seccomp policy compiler runner.
type PolicyConfig struct {
	// JSONDir holds the default policy files, one per target triple
	// (<triple>.json).
	JSONDir string `yaml:"json_dir"`

	// Package is the cargo package implementing the compiler.
	Package string `yaml:"package"`

	// TargetDir is a dedicated cargo target directory for the
	// compiler so its build artifacts stay out of the binary cache.
	TargetDir string `yaml:"target_dir"`
}

// SnapshotConfig configures the snapshot rebase runner.
type SnapshotConfig struct {
	// Package is the cargo package implementing the rebase tool.
	Package string `yaml:"package"`
}

// Default returns the default configuration: a checkout-relative
// layout rooted at the current directory. These defaults make forge
// usable without a config file inside a Cinder checkout.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:        ".",
			BinariesDir: "${WORKSPACE_ROOT}/build/cinder_binaries",
			LockDir:     filepath.Join(os.TempDir(), "forge-locks"),
		},
		Build: BuildConfig{
			BinaryName:    "cinder",
			WardenName:    "cinder-warden",
			WardenPackage: "cinder-warden",
			StripBinary:   "strip",
		},
		Policy: PolicyConfig{
			JSONDir:   "${WORKSPACE_ROOT}/resources/seccomp",
			Package:   "policyc",
			TargetDir: "${WORKSPACE_ROOT}/build/policyc",
		},
		Snapshot: SnapshotConfig{
			Package: "snap-rebase",
		},
	}
}

// Load loads configuration from the FORGE_CONFIG environment
// variable, falling back to pure defaults when it is unset. Test
// runners point FORGE_CONFIG at a per-checkout file.
func Load() (*Config, error) {
	configPath := os.Getenv("FORGE_CONFIG")
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults. Environment variables do not override config
// values; the only expansion performed is ${WORKSPACE_ROOT} and
// ${HOME} in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in all
// path fields. WORKSPACE_ROOT resolves to the (already expanded)
// workspace root so dependent paths can be written relative to it.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Workspace.Root = expandVars(c.Workspace.Root, vars)
	vars["WORKSPACE_ROOT"] = c.Workspace.Root

	c.Workspace.BinariesDir = expandVars(c.Workspace.BinariesDir, vars)
	c.Workspace.LockDir = expandVars(c.Workspace.LockDir, vars)
	c.Policy.JSONDir = expandVars(c.Policy.JSONDir, vars)
	c.Policy.TargetDir = expandVars(c.Policy.TargetDir, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Workspace.Root == "" {
		errs = append(errs, fmt.Errorf("workspace.root is required"))
	}
	if c.Workspace.BinariesDir == "" {
		errs = append(errs, fmt.Errorf("workspace.binaries_dir is required"))
	}
	if c.Workspace.LockDir == "" {
		errs = append(errs, fmt.Errorf("workspace.lock_dir is required"))
	}
	if c.Build.BinaryName == "" {
		errs = append(errs, fmt.Errorf("build.binary_name is required"))
	}
	if c.Build.WardenName == "" {
		errs = append(errs, fmt.Errorf("build.warden_name is required"))
	}
	if c.Build.WardenPackage == "" {
		errs = append(errs, fmt.Errorf("build.warden_package is required"))
	}
	if c.Build.StripBinary == "" {
		errs = append(errs, fmt.Errorf("build.strip_binary is required"))
	}
	if c.Policy.Package == "" {
		errs = append(errs, fmt.Errorf("policy.package is required"))
	}
	if c.Snapshot.Package == "" {
		errs = append(errs, fmt.Errorf("snapshot.package is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
