// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package process_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/cinder-vmm/forge/lib/process"
)

// TestFatal re-executes the test binary so the os.Exit call happens in
// a child process where its exit code and stderr can be observed.
func TestFatal(t *testing.T) {
	if os.Getenv("FORGE_TEST_FATAL") == "1" {
		process.Fatal(errors.New("cache directory unwritable"))
		return
	}

	command := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	command.Env = append(os.Environ(), "FORGE_TEST_FATAL=1")
	output, err := command.CombinedOutput()

	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		t.Fatalf("child err = %v, want non-zero exit", err)
	}
	if code := exitError.ExitCode(); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(string(output), "error: cache directory unwritable") {
		t.Errorf("output = %q, want formatted error line", output)
	}
}
