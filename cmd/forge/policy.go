// Copyright 2026 The Cinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/cinder-vmm/forge/cmd/forge/cli"
	"github.com/cinder-vmm/forge/lib/policy"
)

// policyCommand returns the "forge policy" command group.
func policyCommand() *cli.Command {
	return &cli.Command{
		Name:        "policy",
		Summary:     "Seccomp policy tools",
		Subcommands: []*cli.Command{policyCompileCommand()},
	}
}

// policyCompileCommand returns "forge policy compile": run policyc to
// turn a JSON policy into a BPF program.
func policyCompileCommand() *cli.Command {
	var configPath string
	var outputFile string
	var inputFile string
	var basic bool

	return &cli.Command{
		Name:    "compile",
		Summary: "Compile a seccomp policy to BPF",
		Description: `Compile a seccomp policy file to the BPF program cinder loads at
boot. Without --input-file, the default policy for this host's target
triple is used.`,
		Usage: "forge policy compile --output-file FILE [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("compile", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to forge config file (default: $FORGE_CONFIG)")
			flags.StringVar(&outputFile, "output-file", "", "output BPF file (required)")
			flags.StringVar(&inputFile, "input-file", "", "input policy JSON (default: per-arch policy from config)")
			flags.BoolVar(&basic, "basic", false, "compile without syscall argument checks")
			return flags
		},
		Run: func(args []string) error {
			if outputFile == "" {
				return fmt.Errorf("--output-file is required")
			}

			cfg, arch, logger, err := commandSetup(configPath, "policy/compile")
			if err != nil {
				return err
			}

			runner := policy.New(cfg, arch, logger)
			return runner.Compile(context.Background(), policy.CompileOptions{
				BPFPath:    outputFile,
				PolicyPath: inputFile,
				Basic:      basic,
			})
		},
	}
}
