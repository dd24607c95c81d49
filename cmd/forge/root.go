// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/cinder-vmm/forge/cmd/forge/cli"
	"github.com/cinder-vmm/forge/lib/config"
	"github.com/cinder-vmm/forge/lib/hostarch"
	"github.com/cinder-vmm/forge/lib/version"
)

// rootCommand builds the forge command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "forge",
		Description: `forge: shared build coordinator for the Cinder test suite.

Builds the cinder binaries once per target and caches them for every
test process; runs the policyc and snap-rebase companion tools. All
builds are serialized across processes via filesystem locks.`,
		Subcommands: []*cli.Command{
			buildCommand(),
			testCommand(),
			policyCommand(),
			snapshotCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("forge %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Build (or reuse) the shared release binaries",
				Command:     "forge build",
			},
			{
				Description: "Compile the default seccomp policy for this host",
				Command:     "forge policy compile --output-file /tmp/cinder.bpf",
			},
			{
				Description: "Rebase a diff snapshot onto its base",
				Command:     "forge snapshot rebase --base-file base.mem --diff-file diff.mem",
			},
		},
	}
}

// commandSetup loads configuration, validates it, and detects the
// host architecture. Every subcommand goes through here so the
// failure modes (bad config, unsupported host) read identically.
func commandSetup(configPath, commandName string) (*config.Config, hostarch.Arch, *slog.Logger, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", nil, fmt.Errorf("invalid configuration: %w", err)
	}

	arch, err := hostarch.Detect()
	if err != nil {
		return nil, "", nil, err
	}

	logger := cli.NewCommandLogger().With("command", commandName)
	return cfg, arch, logger, nil
}
