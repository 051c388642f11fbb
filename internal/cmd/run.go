// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nocturo/efirun/internal/config"
	"github.com/nocturo/efirun/internal/esp"
	"github.com/nocturo/efirun/internal/guest"
	"github.com/nocturo/efirun/internal/qemu"
	"github.com/nocturo/efirun/internal/target"
)

// runConfig is the immutable per-invocation run configuration,
// constructed once from flags and config and threaded through the
// pipeline explicitly.
type runConfig struct {
	target   target.Target
	headless bool
	ci       bool
	timeout  time.Duration
	cfg      config.Config
}

func newRunCommand(opts *options) *cobra.Command {
	var (
		headless bool
		ci       bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build, boot and test the firmware image under QEMU",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			tgt, err := opts.resolveTarget()
			if err != nil {
				return err
			}

			runCfg := runConfig{
				target:   tgt,
				headless: headless,
				ci:       ci,
				timeout:  timeout,
				cfg:      cfg,
			}

			if !cmd.Flags().Changed("timeout") {
				runCfg.timeout = cfg.Timeout.Std()
				if ci {
					runCfg.timeout = cfg.CITimeout.Std()
				}
			}

			_, image, err := buildImage(cmd.Context(), opts, cfg, tgt)
			if err != nil {
				return err
			}

			return runImage(cmd, opts, runCfg, image)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false,
		"run QEMU without a display window")
	cmd.Flags().BoolVar(&ci, "ci", false,
		"CI mode: stricter timeout and no advisory outcomes")
	cmd.Flags().DurationVar(&timeout, "timeout", 0,
		"wall-clock limit for the emulator run (default from config)")

	return cmd
}

func runImage(
	cmd *cobra.Command,
	opts *options,
	runCfg runConfig,
	image esp.Image,
) error {
	spec := qemu.CommandSpec{
		Executable:   runCfg.cfg.QEMU.Executable,
		FirmwareCode: image.FirmwareCode,
		FirmwareVars: image.FirmwareVars,
		ESPDir:       image.ESPDir,
		SMP:          runCfg.cfg.QEMU.SMP,
		Memory:       runCfg.cfg.QEMU.Memory,
		NoKVM:        runCfg.cfg.QEMU.NoKVM,
		Headless:     runCfg.headless,
	}
	spec.AddDefaultsFor(runCfg.target)

	qemuCmd, err := qemu.NewCommand(spec)
	if err != nil {
		return err
	}

	qemuCmd.Timeout = runCfg.timeout
	qemuCmd.Stderr = opts.stderr

	slog.Debug("QEMU command", slog.String("command", qemuCmd.String()))

	monitor := guest.Monitor{Echo: opts.stdout}

	result, err := qemuCmd.Run(cmd.Context(), &monitor)

	newReporter(opts.stderr, runCfg.ci).report(result.Outcome)

	if err != nil {
		return err
	}

	return evalOutcome(result, runCfg.ci)
}

// evalOutcome maps the monitored outcome to the command error.
//
// One case is advisory outside CI mode: a guest that terminated QEMU
// through the debug-exit device with a success status but never printed
// a summary. With --ci any ambiguous outcome is fatal.
func evalOutcome(result qemu.Result, ci bool) error {
	outcomeErr := result.Outcome.Err()
	if outcomeErr == nil {
		return nil
	}

	cleanGuestExit := result.GuestExited &&
		result.GuestExitStatus == qemu.DebugExitSuccess

	if !ci && cleanGuestExit &&
		result.Outcome.Status == guest.StatusUnexpectedExit {
		slog.Warn("Guest exited cleanly without a test summary")
		return nil
	}

	return outcomeErr
}
