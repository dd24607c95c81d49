// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FakeTool writes an executable shell script named name into dir and
// returns its path together with the path of its invocation log. The
// script appends one line per invocation to the log ("arg1 arg2 ...")
// before running body, so tests can assert both how often and with
// which arguments forge invoked the tool.
//
// The body runs with the tool's arguments in "$@" and may inspect
// environment variables (CARGO_TARGET_DIR, RUSTFLAGS) or create
// output files to simulate a successful build. An empty body exits 0.
//
//	cargoPath, logPath := testutil.FakeTool(t, dir, "cargo", `
//	    mkdir -p "$CARGO_TARGET_DIR/x86_64-unknown-linux-musl/release"
//	    touch "$CARGO_TARGET_DIR/x86_64-unknown-linux-musl/release/cinder"
//	`)
func FakeTool(t *testing.T, dir, name, body string) (toolPath, logPath string) {
	t.Helper()

	toolPath = filepath.Join(dir, name)
	logPath = filepath.Join(dir, name+".log")

	script := "#!/bin/sh\n" +
		"echo \"$@\" >> " + shellQuote(logPath) + "\n" +
		body + "\n"

	if err := os.WriteFile(toolPath, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake %s: %v", name, err)
	}
	return toolPath, logPath
}

// Invocations returns the logged invocations of a fake tool, one
// argument string per call. A missing log file means zero invocations.
func Invocations(t *testing.T, logPath string) []string {
	t.Helper()

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("reading invocation log %s: %v", logPath, err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// shellQuote wraps s in single quotes for safe interpolation into the
// generated script. Test directories never contain single quotes, but
// escape them anyway.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
