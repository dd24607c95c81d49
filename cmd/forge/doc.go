// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// forge is the shared build coordinator for the Cinder test suite.
// Test processes shell out to it (or link its lib/ packages directly)
// to obtain release binaries, compile seccomp policies, and rebase
// snapshots, with all builds serialized across processes through
// filesystem locks.
//
// Usage:
//
//	forge build                       build (or reuse) the cinder binaries
//	forge policy compile ...          compile a seccomp policy to BPF
//	forge snapshot rebase ...         merge a diff snapshot onto its base
//	forge version                     print version information
//
// Configuration comes from FORGE_CONFIG or --config; without either,
// checkout-relative defaults apply.
package main
