// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/cinder-vmm/forge/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}
