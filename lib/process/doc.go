// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides process-level helpers shared by forge
// entrypoints.
package process
