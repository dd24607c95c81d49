// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for forge packages.
//
// [FakeTool] installs a shell script in place of an external tool
// (cargo, strip) so that build-path tests can observe exactly which
// commands forge would run without a Rust toolchain on the machine.
// Each invocation of the script appends its argument vector to a log
// file that [Invocations] reads back.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. Lock-contention tests use
// them to fail fast instead of hanging when serialization is broken.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no forge-internal dependencies.
package testutil
