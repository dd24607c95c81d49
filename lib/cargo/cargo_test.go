// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package cargo

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/cinder-vmm/forge/lib/hostarch"
	"github.com/cinder-vmm/forge/lib/testutil"
)

func TestRustFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arch hostarch.Arch
		want string
	}{
		{hostarch.X8664, "-D warnings"},
		{hostarch.Aarch64, "-D warnings -C link-arg=-lgcc -C link-arg=-lfdt"},
	}
	for _, testCase := range tests {
		if got := RustFlags(testCase.arch); got != testCase.want {
			t.Errorf("RustFlags(%s) = %q, want %q", testCase.arch, got, testCase.want)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	got := buildArgs(BuildOptions{
		TargetDir: "/tmp/out",
		ExtraArgs: []string{"--release", "--target", "x86_64-unknown-linux-musl"},
	})
	want := []string{"build", "--release", "--target", "x86_64-unknown-linux-musl"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs = %v, want %v", got, want)
	}
}

func TestTestArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options TestOptions
		want    []string
	}{
		{
			name:    "whole workspace",
			options: TestOptions{TargetDir: "/tmp/test-out"},
			want:    []string{"test", "--all", "--no-fail-fast"},
		},
		{
			name: "extra args precede workspace flags",
			options: TestOptions{
				TargetDir: "/tmp/test-out",
				ExtraArgs: []string{"-p", "cinder-warden"},
			},
			want: []string{"test", "-p", "cinder-warden", "--all", "--no-fail-fast"},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			got := testArgs(testCase.options)
			if !reflect.DeepEqual(got, testCase.want) {
				t.Errorf("testArgs = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options RunOptions
		want    []string
	}{
		{
			name: "with target dir",
			options: RunOptions{
				Package:   "policyc",
				TargetDir: "/tmp/policyc-target",
				Target:    "x86_64-unknown-linux-musl",
				ToolArgs:  []string{"--input-file", "p.json"},
			},
			want: []string{
				"run", "-p", "policyc",
				"--target-dir", "/tmp/policyc-target",
				"--target", "x86_64-unknown-linux-musl",
				"--", "--input-file", "p.json",
			},
		},
		{
			name: "without target dir",
			options: RunOptions{
				Package:  "snap-rebase",
				Target:   "aarch64-unknown-linux-musl",
				ToolArgs: []string{"--base-file", "base", "--diff-file", "diff"},
			},
			want: []string{
				"run", "-p", "snap-rebase",
				"--target", "aarch64-unknown-linux-musl",
				"--", "--base-file", "base", "--diff-file", "diff",
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			got := runArgs(testCase.options)
			if !reflect.DeepEqual(got, testCase.want) {
				t.Errorf("runArgs = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestBuild_ExportsTargetDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cargoPath, logPath := testutil.FakeTool(t, dir, "cargo",
		`echo "target_dir=$CARGO_TARGET_DIR rustflags=$RUSTFLAGS" >> `+envLogRef(dir))

	invoker := &Invoker{Binary: cargoPath}
	err := invoker.Build(context.Background(), BuildOptions{
		TargetDir: "/tmp/shared-binaries",
		ExtraArgs: []string{"--release"},
		ExtraEnv:  []string{"RUSTFLAGS=-D warnings"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	calls := testutil.Invocations(t, logPath)
	if len(calls) != 1 {
		t.Fatalf("cargo invoked %d times, want 1", len(calls))
	}
	if calls[0] != "build --release" {
		t.Errorf("cargo args = %q, want %q", calls[0], "build --release")
	}

	envCalls := testutil.Invocations(t, logPath+".env")
	if len(envCalls) != 1 {
		t.Fatalf("env log has %d lines, want 1", len(envCalls))
	}
	if !strings.Contains(envCalls[0], "target_dir=/tmp/shared-binaries") {
		t.Errorf("CARGO_TARGET_DIR not exported: %q", envCalls[0])
	}
	if !strings.Contains(envCalls[0], "rustflags=-D warnings") {
		t.Errorf("RUSTFLAGS not exported: %q", envCalls[0])
	}
}

// envLogRef is the shell-quoted path of the env side log used by
// TestBuild_ExportsTargetDir's fake cargo body.
func envLogRef(dir string) string {
	return "'" + dir + "/cargo.log.env'"
}

func TestBuild_NonZeroExitIsBuildError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cargoPath, _ := testutil.FakeTool(t, dir, "cargo",
		"echo 'error[E0308]: mismatched types' >&2\nexit 101")

	invoker := &Invoker{Binary: cargoPath}
	err := invoker.Build(context.Background(), BuildOptions{TargetDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error from failing build")
	}

	var buildError *BuildError
	if !errors.As(err, &buildError) {
		t.Fatalf("error = %T, want *BuildError", err)
	}
	if !strings.Contains(buildError.Stderr, "mismatched types") {
		t.Errorf("Stderr = %q, want compiler diagnostic", buildError.Stderr)
	}
	if !strings.Contains(buildError.Error(), "mismatched types") {
		t.Errorf("Error() = %q, want stderr content", buildError.Error())
	}
	if !strings.HasPrefix(buildError.Command, "cargo build") {
		t.Errorf("Command = %q, want cargo build prefix", buildError.Command)
	}
}

func TestBuildError_FallsBackToExecError(t *testing.T) {
	t.Parallel()

	buildError := &BuildError{
		Command: "cargo build --release",
		Err:     context.DeadlineExceeded,
	}
	message := buildError.Error()
	if !strings.Contains(message, "cargo build --release") {
		t.Errorf("Error() = %q, want command included", message)
	}
	if !strings.Contains(message, "deadline exceeded") {
		t.Errorf("Error() = %q, want exec error included", message)
	}
}

func TestRun_InvokesToolMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cargoPath, logFile := testutil.FakeTool(t, dir, "cargo", "")

	invoker := &Invoker{Binary: cargoPath}
	err := invoker.Run(context.Background(), RunOptions{
		Package:  "policyc",
		Target:   "x86_64-unknown-linux-musl",
		ToolArgs: []string{"--output-file", "out.bpf"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	calls := testutil.Invocations(t, logFile)
	if len(calls) != 1 {
		t.Fatalf("cargo invoked %d times, want 1", len(calls))
	}
	want := "run -p policyc --target x86_64-unknown-linux-musl -- --output-file out.bpf"
	if calls[0] != want {
		t.Errorf("cargo args = %q, want %q", calls[0], want)
	}
}
