// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package cargo provides typed access to the cargo CLI for building
// Cinder binaries and running companion build-time tools. It
// centralizes binary resolution (PATH first, then the rustup default
// ~/.cargo/bin) and uniform error formatting across all invocations.
//
// Forge uses cargo three ways:
//   - build: producing the cinder and cinder-warden release binaries
//   - test: running the workspace unit tests in a dedicated target dir
//   - run: the compile-then-execute mode for policyc and snap-rebase
//
// Arguments are always structured lists, never shell strings, so
// paths with spaces or shell metacharacters cannot change the command
// that runs.
package cargo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cinder-vmm/forge/lib/hostarch"
)

// targetDirEnv directs cargo's scratch and output directory. Setting
// it per invocation keeps concurrent builds for different targets off
// each other's intermediate state even outside any lock.
const targetDirEnv = "CARGO_TARGET_DIR"

// FindBinary resolves the cargo binary, checking PATH first and then
// the standard rustup installation directory. Returns the absolute
// path to the binary.
func FindBinary() (string, error) {
	if path, err := exec.LookPath("cargo"); err == nil {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		rustupPath := filepath.Join(home, ".cargo", "bin", "cargo")
		if _, err := os.Stat(rustupPath); err == nil {
			return rustupPath, nil
		}
	}

	return "", fmt.Errorf("cargo not found on PATH or in ~/.cargo/bin — install the Rust toolchain first")
}

// RustFlags returns the RUSTFLAGS value for building Cinder on the
// given architecture. Warnings are always errors; aarch64 additionally
// needs two linker flags for libgcc intrinsics and the device tree
// library required by the platform ABI.
func RustFlags(arch hostarch.Arch) string {
	flags := []string{"-D", "warnings"}
	if arch == hostarch.Aarch64 {
		flags = append(flags, "-C", "link-arg=-lgcc", "-C", "link-arg=-lfdt")
	}
	return strings.Join(flags, " ")
}

// BuildError reports a failed build-chain tool invocation (cargo or
// strip) with the exact command and its captured output. A non-zero
// exit is deterministic given unchanged source, so callers surface it
// without retrying.
type BuildError struct {
	// Command is the full command line that failed, for log output.
	Command string

	// Stdout and Stderr are the captured output streams.
	Stdout string
	Stderr string

	// Err is the underlying exec error.
	Err error
}

// Error prefers stderr output (which carries the actual compiler
// diagnostics) over the generic exec error.
func (e *BuildError) Error() string {
	stderrText := strings.TrimSpace(e.Stderr)
	if stderrText != "" {
		return fmt.Sprintf("%s: %s", e.Command, stderrText)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Invoker runs cargo commands. The zero value resolves cargo via
// FindBinary on first use; tests point Binary at a fake tool script.
type Invoker struct {
	// Binary overrides cargo binary resolution when non-empty.
	Binary string
}

// BuildOptions configures a single "cargo build" invocation.
type BuildOptions struct {
	// TargetDir is the cargo target directory for this build,
	// exported as CARGO_TARGET_DIR. Required.
	TargetDir string

	// ExtraArgs are appended after "build" (e.g. --release,
	// --target, -p).
	ExtraArgs []string

	// SourceDir is the working directory for the invocation. Empty
	// means the current directory.
	SourceDir string

	// ExtraEnv entries ("KEY=VALUE") are appended to the inherited
	// environment.
	ExtraEnv []string
}

// Build runs "cargo build" with the given options. A non-zero exit
// returns a *BuildError carrying the captured compiler output.
func (inv *Invoker) Build(ctx context.Context, options BuildOptions) error {
	env := append([]string{targetDirEnv + "=" + options.TargetDir}, options.ExtraEnv...)
	return inv.run(ctx, buildArgs(options), env, options.SourceDir)
}

// RunOptions configures a single "cargo run" invocation: compile the
// named workspace package and execute it with ToolArgs.
type RunOptions struct {
	// Package is the cargo workspace package to compile and run.
	Package string

	// TargetDir, when non-empty, is passed as --target-dir so the
	// tool's build artifacts stay out of the shared binary cache.
	TargetDir string

	// Target is the cargo target triple.
	Target string

	// SourceDir is the working directory for the invocation.
	SourceDir string

	// ToolArgs are passed to the tool itself, after "--".
	ToolArgs []string
}

// Run executes a companion tool via "cargo run". The tool is rebuilt
// if needed and then executed; a non-zero exit from either phase
// returns a *BuildError.
func (inv *Invoker) Run(ctx context.Context, options RunOptions) error {
	return inv.run(ctx, runArgs(options), nil, options.SourceDir)
}

// TestOptions configures a single "cargo test" invocation over the
// whole workspace.
type TestOptions struct {
	// TargetDir is the cargo target directory for test artifacts,
	// exported as CARGO_TARGET_DIR. Kept separate from the release
	// cache so test builds never disturb cached binaries.
	TargetDir string

	// ExtraArgs are inserted after "test", before the workspace
	// flags (e.g. -p to restrict the run to one package).
	ExtraArgs []string

	// SourceDir is the working directory for the invocation.
	SourceDir string

	// ExtraEnv entries ("KEY=VALUE") are appended to the inherited
	// environment.
	ExtraEnv []string
}

// Test runs the workspace unit tests: "cargo test ... --all
// --no-fail-fast". All packages run even when one fails, so a single
// invocation reports every broken crate.
func (inv *Invoker) Test(ctx context.Context, options TestOptions) error {
	env := append([]string{targetDirEnv + "=" + options.TargetDir}, options.ExtraEnv...)
	return inv.run(ctx, testArgs(options), env, options.SourceDir)
}

// buildArgs constructs the argument vector for a build invocation.
func buildArgs(options BuildOptions) []string {
	return append([]string{"build"}, options.ExtraArgs...)
}

// testArgs constructs the argument vector for a test invocation.
func testArgs(options TestOptions) []string {
	args := append([]string{"test"}, options.ExtraArgs...)
	return append(args, "--all", "--no-fail-fast")
}

// runArgs constructs the argument vector for a tool invocation.
func runArgs(options RunOptions) []string {
	args := []string{"run", "-p", options.Package}
	if options.TargetDir != "" {
		args = append(args, "--target-dir", options.TargetDir)
	}
	args = append(args, "--target", options.Target, "--")
	return append(args, options.ToolArgs...)
}

// run resolves the cargo binary, executes it with the given arguments
// and environment additions, and captures both output streams. The
// coordinator inspects only the exit status; the captured output
// travels inside the returned *BuildError.
func (inv *Invoker) run(ctx context.Context, args, extraEnv []string, dir string) error {
	binaryPath := inv.Binary
	if binaryPath == "" {
		resolved, err := FindBinary()
		if err != nil {
			return err
		}
		binaryPath = resolved
	}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, binaryPath, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	command.Dir = dir
	if len(extraEnv) > 0 {
		command.Env = append(os.Environ(), extraEnv...)
	}

	if err := command.Run(); err != nil {
		return &BuildError{
			Command: "cargo " + strings.Join(args, " "),
			Stdout:  stdout.String(),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}
	return nil
}
