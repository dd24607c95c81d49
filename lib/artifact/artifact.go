// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact locates build products in the shared binary cache
// and records a manifest of what was built. Path resolution is a pure
// function of the cache root and the target descriptor: the cache has
// no index, no database, and no content addressing — a binary is
// cached if and only if it exists at its resolved path.
package artifact

import (
	"os"
	"path/filepath"

	"github.com/cinder-vmm/forge/lib/hostarch"
)

// PathSet is the pair of binary paths for one target: the main
// cinder executable and the cinder-warden privilege-separation
// helper. Paths are recomputed on every call; only the underlying
// files are cached.
type PathSet struct {
	// Binary is the main cinder executable.
	Binary string

	// Warden is the privilege-separation helper.
	Warden string
}

// ResolvePaths computes the output paths for the given cache root and
// target. The convention is <root>/<triple>/<profile>/<name>, which
// matches where cargo places binaries when CARGO_TARGET_DIR is root.
// Pure: same inputs always yield the same paths, no I/O.
func ResolvePaths(root string, target hostarch.Target, binaryName, wardenName string) PathSet {
	outputDir := filepath.Join(root, target.Triple(), string(target.Profile))
	return PathSet{
		Binary: filepath.Join(outputDir, binaryName),
		Warden: filepath.Join(outputDir, wardenName),
	}
}

// Dir returns the directory containing both binaries.
func (p PathSet) Dir() string {
	return filepath.Dir(p.Binary)
}

// Exists reports whether the main binary is present. This is the
// cache's single validity signal: no content hashing, no staleness
// detection. A binary left behind by an older source tree is served
// as-is until someone removes it.
func (p PathSet) Exists() bool {
	_, err := os.Stat(p.Binary)
	return err == nil
}
