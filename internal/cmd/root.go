// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd implements the efirun command line interface.
//
// It is the single place where component errors are mapped to process
// exit codes, so the CI environment can gate on them.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nocturo/efirun/internal/config"
	"github.com/nocturo/efirun/internal/target"
)

// Set on build.
var version = "dev"

// options carries the flag values shared by all subcommands.
type options struct {
	stdout io.Writer
	stderr io.Writer

	targetID   string
	configFile string
	verbose    bool
}

// loadConfig reads the workspace configuration the flags are resolved
// against.
func (o *options) loadConfig() (config.Config, error) {
	return config.Load(o.configFile)
}

func (o *options) resolveTarget() (target.Target, error) {
	return target.Resolve(o.targetID)
}

// NewRootCommand creates the root command with all subcommands
// attached.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:   "efirun",
		Short: "Build and test UEFI firmware images under QEMU",
		Long: `efirun builds a UEFI firmware test crate, assembles a bootable
EFI System Partition, boots it under QEMU/OVMF and watches the serial
console for test results. It is meant to be driven by CI: every failure
mode maps to a distinct exit code.`,
		Version: version,
		// The CLI maps errors to exit codes itself, cobra must not
		// print usage or duplicate error output on run failures.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(stderr, opts.verbose)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.targetID, "target", target.NativeX8664,
		"build target, one of: "+joinIDs())
	flags.StringVar(&opts.configFile, "config", config.DefaultFile,
		"path to the workspace configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"print executed commands and debug output")

	root.AddCommand(newBuildCommand(opts))
	root.AddCommand(newRunCommand(opts))

	return root
}

func joinIDs() string {
	ids := target.IDs()

	joined := ids[0]
	for _, id := range ids[1:] {
		joined += ", " + id
	}

	return joined
}

// Run is the main entry point for the CLI.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}

	return exitCode(err)
}
