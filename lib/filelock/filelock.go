// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package filelock provides mutual exclusion across OS processes via
// advisory flock(2) locks on per-key lock files. The test suite runs
// as many independent processes that all want the same expensive
// build artifacts; this package serializes the check-then-build
// sequence so the build happens once and everyone else observes the
// result.
//
// Locks are tied to the open file description, so the kernel releases
// them automatically when the holding process exits — a crashed
// holder can never deadlock the suite. Distinct keys use distinct
// lock files and never contend.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Lock is an exclusive claim on a named lock file. It is held from
// Acquire until Release and must not be shared between goroutines.
type Lock struct {
	path string
	file *os.File
}

// Acquire opens (creating if necessary) the lock file for key under
// dir and takes an exclusive flock on it, blocking until the lock is
// free. There is no timeout: callers are trusted same-machine test
// processes, and a holder that dies releases the lock via the kernel.
func Acquire(dir, key string) (*Lock, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, key+".lock")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and closes the underlying file. Safe to call
// more than once; subsequent calls are no-ops. The lock file itself
// is left in place — removing it would race with a concurrent
// Acquire that already opened it.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	// Closing the descriptor releases the flock; the explicit unlock
	// makes the release visible to waiters before the close syscall.
	unlockErr := unix.Flock(int(file.Fd()), unix.LOCK_UN)
	closeErr := file.Close()
	if unlockErr != nil {
		return fmt.Errorf("unlocking %s: %w", l.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing lock file %s: %w", l.path, closeErr)
	}
	return nil
}

// Path returns the lock file path. Used in log output.
func (l *Lock) Path() string {
	return l.path
}

// WithLock acquires the lock for key under dir, runs operation, and
// releases the lock on every exit path, including operation failure.
// This is the preferred form; use Acquire/Release directly only when
// the critical section does not fit a single function.
func WithLock(dir, key string, operation func() error) error {
	lock, err := Acquire(dir, key)
	if err != nil {
		return err
	}
	defer lock.Release()
	return operation()
}

// validKey rejects keys that would escape the lock directory or
// produce surprising file names.
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("lock key must not be empty")
	}
	if strings.ContainsAny(key, "/\x00") || key == "." || key == ".." {
		return fmt.Errorf("invalid lock key %q", key)
	}
	return nil
}
