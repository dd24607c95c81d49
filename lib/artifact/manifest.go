// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/cinder-vmm/forge/lib/hostarch"
)

// manifestName is the file written beside freshly built binaries.
const manifestName = "manifest.json"

// Manifest records what a release build produced: the target, when it
// finished, and a BLAKE3 digest per binary. It is informational — for
// correlating test logs with the binaries they ran against — and is
// never consulted for cache validity, which stays presence-only.
type Manifest struct {
	Target  string            `json:"target"`
	BuiltAt time.Time         `json:"built_at"`
	Digests map[string]string `json:"digests"`
}

// HashFile computes the hex-encoded BLAKE3 digest of the file at
// path. The file is streamed through the hasher so memory stays
// constant regardless of binary size.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// WriteManifest hashes both binaries in paths and writes the manifest
// beside them. Called by the coordinator after a successful build,
// inside the build lock.
func WriteManifest(paths PathSet, target hostarch.Target) error {
	binaryDigest, err := HashFile(paths.Binary)
	if err != nil {
		return err
	}
	wardenDigest, err := HashFile(paths.Warden)
	if err != nil {
		return err
	}

	manifest := Manifest{
		Target:  target.String(),
		BuiltAt: time.Now().UTC(),
		Digests: map[string]string{
			filepath.Base(paths.Binary): binaryDigest,
			filepath.Base(paths.Warden): wardenDigest,
		},
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding build manifest: %w", err)
	}

	manifestPath := filepath.Join(paths.Dir(), manifestName)
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing build manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a binary output directory.
// Returns os.ErrNotExist (wrapped) when no build has written one.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("reading build manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing build manifest: %w", err)
	}
	return &manifest, nil
}
