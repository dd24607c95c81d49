// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/cinder-vmm/forge/cmd/forge/cli"
	"github.com/cinder-vmm/forge/lib/snapshot"
)

// snapshotCommand returns the "forge snapshot" command group.
func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:        "snapshot",
		Summary:     "Snapshot tools",
		Subcommands: []*cli.Command{snapshotRebaseCommand()},
	}
}

// snapshotRebaseCommand returns "forge snapshot rebase": merge a diff
// snapshot's dirty pages onto a base snapshot memory file.
func snapshotRebaseCommand() *cli.Command {
	var configPath string
	var baseFile string
	var diffFile string

	return &cli.Command{
		Name:    "rebase",
		Summary: "Merge a diff snapshot onto its base",
		Usage:   "forge snapshot rebase --base-file FILE --diff-file FILE [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("rebase", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to forge config file (default: $FORGE_CONFIG)")
			flags.StringVar(&baseFile, "base-file", "", "base snapshot memory file (required, modified in place)")
			flags.StringVar(&diffFile, "diff-file", "", "diff snapshot memory file (required)")
			return flags
		},
		Run: func(args []string) error {
			if baseFile == "" || diffFile == "" {
				return fmt.Errorf("--base-file and --diff-file are required")
			}

			cfg, arch, logger, err := commandSetup(configPath, "snapshot/rebase")
			if err != nil {
				return err
			}

			runner := snapshot.New(cfg, arch, logger)
			return runner.Rebase(context.Background(), baseFile, diffFile)
		},
	}
}
