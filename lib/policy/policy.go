// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy runs the policyc seccomp policy compiler: it turns a
// JSON filter description into the BPF program that cinder installs
// at boot. The compiler is invoked through cargo's run mode (compile
// then execute) rather than a cached binary path, under its own lock
// key so concurrent test processes never rebuild the compiler twice
// at once — and never contend with the main binary build.
//
// Policy files are authored as JSONC (JSON with comments and trailing
// commas). Compile preflights the input locally so a malformed policy
// fails with a readable error instead of a compiler backtrace.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/cinder-vmm/forge/lib/cargo"
	"github.com/cinder-vmm/forge/lib/config"
	"github.com/cinder-vmm/forge/lib/filelock"
	"github.com/cinder-vmm/forge/lib/hostarch"
)

// lockKey serializes policyc invocations. Distinct from the binary
// build key: compiling a policy must not block a binary build.
const lockKey = "policyc"

// Runner invokes the policy compiler. Construct with New.
type Runner struct {
	lockDir   string
	jsonDir   string
	targetDir string
	pkg       string
	arch      hostarch.Arch
	sourceDir string
	invoker   *cargo.Invoker
	logger    *slog.Logger
}

// New returns a Runner for the given configuration and architecture.
func New(cfg *config.Config, arch hostarch.Arch, logger *slog.Logger) *Runner {
	return &Runner{
		lockDir:   cfg.Workspace.LockDir,
		jsonDir:   cfg.Policy.JSONDir,
		targetDir: cfg.Policy.TargetDir,
		pkg:       cfg.Policy.Package,
		arch:      arch,
		sourceDir: cfg.Workspace.Root,
		invoker:   &cargo.Invoker{Binary: cfg.Build.CargoBinary},
		logger:    logger,
	}
}

// CompileOptions configures a single compiler invocation.
type CompileOptions struct {
	// BPFPath is the output file the compiled program is written to.
	BPFPath string

	// PolicyPath is the input policy. Empty selects the default
	// policy for the runner's architecture: <json_dir>/<triple>.json.
	PolicyPath string

	// Basic strips argument checks from the filter, keeping only
	// syscall numbers. Used by tests that need a permissive filter.
	Basic bool
}

// Compile runs policyc with the given options under the policy lock.
// The compiler always runs — there is no output cache — but the lock
// prevents concurrent redundant rebuilds of the compiler itself.
func (r *Runner) Compile(ctx context.Context, options CompileOptions) error {
	return filelock.WithLock(r.lockDir, lockKey, func() error {
		policyPath := options.PolicyPath
		if policyPath == "" {
			policyPath = filepath.Join(r.jsonDir, r.arch.Triple()+".json")
		}

		if err := preflightPolicy(policyPath); err != nil {
			return err
		}

		r.logger.Info("compiling seccomp policy",
			"policy", policyPath, "output", options.BPFPath, "basic", options.Basic)

		return r.invoker.Run(ctx, cargo.RunOptions{
			Package:   r.pkg,
			TargetDir: r.targetDir,
			Target:    r.arch.Triple(),
			SourceDir: r.sourceDir,
			ToolArgs:  toolArgs(policyPath, r.arch, options),
		})
	})
}

// toolArgs constructs the compiler's own argument vector. Basic
// appends exactly one flag.
func toolArgs(policyPath string, arch hostarch.Arch, options CompileOptions) []string {
	args := []string{
		"--input-file", policyPath,
		"--target-arch", string(arch),
		"--output-file", options.BPFPath,
	}
	if options.Basic {
		args = append(args, "--basic")
	}
	return args
}

// preflightPolicy checks that the policy file exists and parses as
// JSONC. The compiler would reject it anyway; failing here gives the
// path and parse error without a cargo round trip.
func preflightPolicy(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading policy %s: %w", path, err)
	}

	var document map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return fmt.Errorf("policy %s is not valid JSONC: %w", path, err)
	}
	return nil
}
