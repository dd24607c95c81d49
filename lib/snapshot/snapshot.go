// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot runs the snap-rebase tool, which merges a diff
// snapshot's dirty pages onto a base snapshot memory file in place.
// Like the policy compiler, the tool runs through cargo's run mode
// under its own lock key: the lock exists to keep concurrent test
// processes from rebuilding the tool simultaneously, not to cache its
// output — every call re-invokes the tool.
package snapshot

import (
	"context"
	"log/slog"

	"github.com/cinder-vmm/forge/lib/cargo"
	"github.com/cinder-vmm/forge/lib/config"
	"github.com/cinder-vmm/forge/lib/filelock"
	"github.com/cinder-vmm/forge/lib/hostarch"
)

// lockKey serializes snap-rebase invocations, separate from both the
// binary build and the policy compiler.
const lockKey = "snap-rebase"

// Runner invokes the snapshot rebase tool. Construct with New.
type Runner struct {
	lockDir   string
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
		pkg:       cfg.Snapshot.Package,
		arch:      arch,
		sourceDir: cfg.Workspace.Root,
		invoker:   &cargo.Invoker{Binary: cfg.Build.CargoBinary},
		logger:    logger,
	}
}

// Rebase applies the dirty pages recorded in diffPath onto basePath.
// Both paths are passed through to the tool unmodified; the tool
// mutates basePath in place.
func (r *Runner) Rebase(ctx context.Context, basePath, diffPath string) error {
	return filelock.WithLock(r.lockDir, lockKey, func() error {
		r.logger.Info("rebasing snapshot", "base", basePath, "diff", diffPath)

		return r.invoker.Run(ctx, cargo.RunOptions{
			Package:   r.pkg,
			Target:    r.arch.Triple(),
			SourceDir: r.sourceDir,
			ToolArgs: []string{
				"--base-file", basePath,
				"--diff-file", diffPath,
			},
		})
	})
}
