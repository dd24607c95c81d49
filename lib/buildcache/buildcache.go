// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildcache coordinates shared release builds of the Cinder
// binaries across concurrently running test processes. Building is
// expensive, so the whole check-then-build sequence runs under an
// inter-process file lock: at most one process builds a given target,
// and every other process blocks until it can observe the cached
// result.
//
// The cache is presence-only. The single validity signal is "does the
// main binary exist at its resolved path" — no source hashing, no
// timestamps. If sources change without the binary being removed, the
// stale binary is served; removing the binaries directory is the
// invalidation mechanism. A failed build leaves nothing at the
// expected path, so later callers simply rebuild.
package buildcache

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cinder-vmm/forge/lib/artifact"
	"github.com/cinder-vmm/forge/lib/cargo"
	"github.com/cinder-vmm/forge/lib/config"
	"github.com/cinder-vmm/forge/lib/filelock"
	"github.com/cinder-vmm/forge/lib/hostarch"
)

// buildLockKey serializes all binary cache operations. One key for
// every caller: the critical section is the existence check plus the
// build, and those must be atomic with respect to each other.
const buildLockKey = "build-binaries"

// Coordinator builds and caches the Cinder release binaries for one
// target. Construct with New; all fields are fixed at construction.
type Coordinator struct {
	sourceDir   string
	binariesDir string
	lockDir     string
	target      hostarch.Target

	binaryName    string
	wardenName    string
	wardenPackage string

	invoker     *cargo.Invoker
	stripBinary string
	logger      *slog.Logger
}

// New returns a Coordinator for the given configuration and host
// architecture. The architecture is passed in (rather than detected
// here) so tests can exercise either target without the hardware.
func New(cfg *config.Config, arch hostarch.Arch, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		sourceDir:     cfg.Workspace.Root,
		binariesDir:   cfg.Workspace.BinariesDir,
		lockDir:       cfg.Workspace.LockDir,
		target:        hostarch.Target{Arch: arch, Profile: hostarch.Release},
		binaryName:    cfg.Build.BinaryName,
		wardenName:    cfg.Build.WardenName,
		wardenPackage: cfg.Build.WardenPackage,
		invoker:       &cargo.Invoker{Binary: cfg.Build.CargoBinary},
		stripBinary:   cfg.Build.StripBinary,
		logger:        logger,
	}
}

// GetOrBuildBinaries returns the paths of the release binaries,
// building them first if the cache is empty. The existence check and
// the build run as one atomic region under the build lock, so
// concurrent callers for the same target trigger exactly one build
// and then all observe it.
func (c *Coordinator) GetOrBuildBinaries(ctx context.Context) (artifact.PathSet, error) {
	var paths artifact.PathSet
	err := filelock.WithLock(c.lockDir, buildLockKey, func() error {
		paths = c.resolvePaths()
		if paths.Exists() {
			c.logger.Debug("binary cache hit", "binary", paths.Binary)
			return nil
		}

		c.logger.Info("binary cache miss, building",
			"target", c.target.String(), "binaries_dir", c.binariesDir)
		return c.buildRelease(ctx, paths)
	})
	if err != nil {
		return artifact.PathSet{}, err
	}
	return paths, nil
}

// BuildRelease unconditionally rebuilds the release binaries under
// the build lock and returns their paths. Used by build tests that
// must exercise the build itself rather than the cache.
func (c *Coordinator) BuildRelease(ctx context.Context) (artifact.PathSet, error) {
	var paths artifact.PathSet
	err := filelock.WithLock(c.lockDir, buildLockKey, func() error {
		paths = c.resolvePaths()
		return c.buildRelease(ctx, paths)
	})
	if err != nil {
		return artifact.PathSet{}, err
	}
	return paths, nil
}

// RunUnitTests runs the Cinder workspace unit tests. Test artifacts
// go to a dedicated subdirectory of the binaries directory, keyed by
// the test profile, so they never collide with the cached release
// binaries — which also means no build lock is needed here. Tests run
// single-threaded with backtraces enabled: many of them manipulate
// global host state (KVM devices, network namespaces) and cannot
// share a process.
func (c *Coordinator) RunUnitTests(ctx context.Context, extraArgs []string) error {
	testDir := filepath.Join(c.binariesDir, string(hostarch.Test))
	c.logger.Info("running workspace unit tests", "target_dir", testDir)

	return c.invoker.Test(ctx, cargo.TestOptions{
		TargetDir: testDir,
		SourceDir: c.sourceDir,
		ExtraArgs: extraArgs,
		ExtraEnv: []string{
			"RUST_TEST_THREADS=1",
			"RUST_BACKTRACE=1",
			"RUSTFLAGS=" + cargo.RustFlags(c.target.Arch),
		},
	})
}

// resolvePaths recomputes the artifact paths for this coordinator's
// target. Pure; called fresh on every operation.
func (c *Coordinator) resolvePaths() artifact.PathSet {
	return artifact.ResolvePaths(c.binariesDir, c.target, c.binaryName, c.wardenName)
}

// buildRelease runs the two release builds (main binary, then the
// warden helper), strips debug symbols from both, and records the
// build manifest. Caller holds the build lock.
func (c *Coordinator) buildRelease(ctx context.Context, paths artifact.PathSet) error {
	triple := c.target.Triple()
	rustflags := "RUSTFLAGS=" + cargo.RustFlags(c.target.Arch)

	mainBuild := cargo.BuildOptions{
		TargetDir: c.binariesDir,
		SourceDir: c.sourceDir,
		ExtraEnv:  []string{rustflags},
		ExtraArgs: []string{"--release", "--target", triple},
	}
	if err := c.invoker.Build(ctx, mainBuild); err != nil {
		return fmt.Errorf("building %s: %w", c.binaryName, err)
	}

	wardenBuild := cargo.BuildOptions{
		TargetDir: c.binariesDir,
		SourceDir: c.sourceDir,
		ExtraEnv:  []string{rustflags},
		ExtraArgs: []string{"-p", c.wardenPackage, "--release", "--target", triple},
	}
	if err := c.invoker.Build(ctx, wardenBuild); err != nil {
		return fmt.Errorf("building %s: %w", c.wardenName, err)
	}

	if err := c.stripDebugSymbols(ctx, paths); err != nil {
		return err
	}

	if err := artifact.WriteManifest(paths, c.target); err != nil {
		return err
	}

	c.logger.Info("release build complete",
		"binary", paths.Binary, "warden", paths.Warden)
	return nil
}

// stripDebugSymbols strips both binaries in place. The test suite
// copies binaries into memory-constrained guests, so debug symbols
// are always removed. Failure propagates as a *cargo.BuildError.
func (c *Coordinator) stripDebugSymbols(ctx context.Context, paths artifact.PathSet) error {
	args := []string{"--strip-debug", paths.Binary, paths.Warden}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, c.stripBinary, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return &cargo.BuildError{
			Command: c.stripBinary + " " + strings.Join(args, " "),
			Stdout:  stdout.String(),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}
	return nil
}
