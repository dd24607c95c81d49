// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostarch identifies the CPU architecture of the host and
// derives the cargo target triple and output profile used by the
// shared build cache. The architecture is detected once at process
// start and threaded explicitly into every component that needs it
// (build invoker, artifact locator, tool runners), so tests can
// exercise either architecture without the hardware.
package hostarch

import (
	"fmt"
	"runtime"
)

// Arch is a CPU architecture in cargo/toolchain naming ("x86_64",
// "aarch64"), not Go naming ("amd64", "arm64").
type Arch string

const (
	// X8664 is the 64-bit Intel/AMD architecture.
	X8664 Arch = "x86_64"

	// Aarch64 is the 64-bit ARM architecture.
	Aarch64 Arch = "aarch64"
)

// Detect returns the architecture of the running host. Returns an
// error on architectures Cinder does not build for; callers surface
// this as a configuration error before any build is attempted.
func Detect() (Arch, error) {
	switch runtime.GOARCH {
	case "amd64":
		return X8664, nil
	case "arm64":
		return Aarch64, nil
	default:
		return "", fmt.Errorf("unsupported host architecture %q (cinder builds on amd64 and arm64 only)", runtime.GOARCH)
	}
}

// Valid reports whether a is one of the supported architectures.
func (a Arch) Valid() bool {
	return a == X8664 || a == Aarch64
}

// Triple returns the cargo target triple for this architecture. All
// Cinder binaries are statically linked against musl, so the triple
// is always the musl variant.
func (a Arch) Triple() string {
	return string(a) + "-unknown-linux-musl"
}

// Profile is a cargo build profile. It selects the subdirectory of
// the target directory that cargo writes artifacts into.
type Profile string

const (
	// Debug is the default cargo profile.
	Debug Profile = "debug"

	// Release is the optimized profile used for all shared test
	// binaries.
	Release Profile = "release"

	// Test is the profile used for unit test artifacts.
	Test Profile = "test"
)

// Target describes a build target: host architecture plus cargo
// profile. It is immutable and computed once per process.
type Target struct {
	Arch    Arch
	Profile Profile
}

// Triple returns the cargo target triple. The profile does not
// participate in triple naming.
func (t Target) Triple() string {
	return t.Arch.Triple()
}

// String returns a human-readable identifier, e.g.
// "x86_64-unknown-linux-musl/release". Used in log output.
func (t Target) String() string {
	return t.Triple() + "/" + string(t.Profile)
}
