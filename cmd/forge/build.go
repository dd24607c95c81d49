// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/cinder-vmm/forge/cmd/forge/cli"
	"github.com/cinder-vmm/forge/lib/artifact"
	"github.com/cinder-vmm/forge/lib/buildcache"
)

// buildCommand returns the "forge build" command: get-or-build the
// shared release binaries and print their paths, one per line, main
// binary first. Test harnesses consume the two lines directly.
func buildCommand() *cli.Command {
	var configPath string
	var rebuild bool

	return &cli.Command{
		Name:    "build",
		Summary: "Build (or reuse) the cinder release binaries",
		Description: `Build the cinder and cinder-warden release binaries for this host,
reusing the cached build when the binaries already exist. Prints the
two binary paths on stdout, main binary first.`,
		Usage: "forge build [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to forge config file (default: $FORGE_CONFIG)")
			flags.BoolVar(&rebuild, "rebuild", false, "rebuild even when cached binaries exist")
			return flags
		},
		Run: func(args []string) error {
			cfg, arch, logger, err := commandSetup(configPath, "build")
			if err != nil {
				return err
			}

			coordinator := buildcache.New(cfg, arch, logger)
			ctx := context.Background()

			var paths artifact.PathSet
			if rebuild {
				paths, err = coordinator.BuildRelease(ctx)
			} else {
				paths, err = coordinator.GetOrBuildBinaries(ctx)
			}
			if err != nil {
				return err
			}

			fmt.Println(paths.Binary)
			fmt.Println(paths.Warden)
			return nil
		},
	}
}
