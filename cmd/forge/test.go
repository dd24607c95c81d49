// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/cinder-vmm/forge/cmd/forge/cli"
	"github.com/cinder-vmm/forge/lib/buildcache"
)

// testCommand returns the "forge test" command: run the Cinder
// workspace unit tests. Positional arguments after the flags are
// passed through to cargo test (e.g. "-p cinder-warden").
func testCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "test",
		Summary: "Run the Cinder workspace unit tests",
		Description: `Run the workspace unit tests with cargo, single-threaded and with
backtraces enabled. Test artifacts use their own target directory and
never touch the cached release binaries.`,
		Usage: "forge test [flags] [cargo-test-args]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to forge config file (default: $FORGE_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			cfg, arch, logger, err := commandSetup(configPath, "test")
			if err != nil {
				return err
			}

			coordinator := buildcache.New(cfg, arch, logger)
			return coordinator.RunUnitTests(context.Background(), args)
		},
	}
}
