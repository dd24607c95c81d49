// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
)

func TestRootCommand_Composition(t *testing.T) {
	t.Parallel()

	root := rootCommand()
	want := map[string]bool{
		"build":    false,
		"test":     false,
		"policy":   false,
		"snapshot": false,
		"version":  false,
	}
	for _, sub := range root.Subcommands {
		if _, ok := want[sub.Name]; ok {
			want[sub.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestBuildCommand_RejectsUnknownFlag(t *testing.T) {
	t.Parallel()

	err := buildCommand().Execute([]string{"--no-such-flag"})
	if err == nil {
		t.Fatal("expected flag parse error")
	}
}

func TestPolicyCompile_RequiresOutputFile(t *testing.T) {
	t.Parallel()

	err := policyCompileCommand().Execute(nil)
	if err == nil {
		t.Fatal("expected missing --output-file error")
	}
}

func TestSnapshotRebase_RequiresBothFiles(t *testing.T) {
	t.Parallel()

	err := snapshotRebaseCommand().Execute([]string{"--base-file", "/b"})
	if err == nil {
		t.Fatal("expected missing --diff-file error")
	}
}
