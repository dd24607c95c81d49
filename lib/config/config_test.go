// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Validates(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Build.BinaryName != "cinder" || cfg.Build.WardenName != "cinder-warden" {
		t.Errorf("unexpected binary names: %q, %q", cfg.Build.BinaryName, cfg.Build.WardenName)
	}
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forge.yaml")
	content := `
workspace:
  root: /src/cinder
build:
  cargo_binary: /opt/rust/bin/cargo
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Workspace.Root != "/src/cinder" {
		t.Errorf("workspace.root = %q", cfg.Workspace.Root)
	}
	if cfg.Build.CargoBinary != "/opt/rust/bin/cargo" {
		t.Errorf("build.cargo_binary = %q", cfg.Build.CargoBinary)
	}

	// Untouched fields keep their defaults.
	if cfg.Build.StripBinary != "strip" {
		t.Errorf("build.strip_binary = %q, want default", cfg.Build.StripBinary)
	}
	if cfg.Snapshot.Package != "snap-rebase" {
		t.Errorf("snapshot.package = %q, want default", cfg.Snapshot.Package)
	}
}

func TestLoadFile_ExpandsWorkspaceRoot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forge.yaml")
	content := `
workspace:
  root: /src/cinder
  binaries_dir: ${WORKSPACE_ROOT}/build/bin
policy:
  json_dir: ${WORKSPACE_ROOT}/resources/seccomp
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Workspace.BinariesDir != "/src/cinder/build/bin" {
		t.Errorf("binaries_dir = %q", cfg.Workspace.BinariesDir)
	}
	if cfg.Policy.JSONDir != "/src/cinder/resources/seccomp" {
		t.Errorf("policy.json_dir = %q", cfg.Policy.JSONDir)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_ReportsAllMissingFields(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("empty config validated")
	}
	for _, field := range []string{"workspace.root", "build.binary_name", "policy.package"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("validation error missing %q: %v", field, err)
		}
	}
}

func TestExpandVars(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"WORKSPACE_ROOT": "/src"}
	tests := []struct {
		input string
		want  string
	}{
		{"${WORKSPACE_ROOT}/build", "/src/build"},
		{"${UNSET_FORGE_VAR:-/fallback}/x", "/fallback/x"},
		{"/plain/path", "/plain/path"},
	}
	for _, testCase := range tests {
		if got := expandVars(testCase.input, vars); got != testCase.want {
			t.Errorf("expandVars(%q) = %q, want %q", testCase.input, got, testCase.want)
		}
	}
}
