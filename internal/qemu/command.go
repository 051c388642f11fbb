// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu builds and runs the QEMU command that boots an assembled
// firmware image.
//
// The child process is owned exclusively by [Command.Run]. It is
// terminated, gracefully or forced, before Run returns on every exit
// path.
package qemu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/nocturo/efirun/internal/guest"
)

// DebugExitSuccess is the value the guest writes to the isa-debug-exit
// device on a clean exit. QEMU terminates with status
// (value << 1) | 1, so a clean guest exit surfaces as an odd, nonzero
// process status.
const DebugExitSuccess = 0x10

// terminationGracePeriod is the time the child process gets to shut
// down after SIGTERM before it is killed.
const terminationGracePeriod = 5 * time.Second

// Result is the result of one emulator run.
type Result struct {
	// Outcome is the terminal outcome the guest monitor observed.
	Outcome guest.Outcome

	// GuestExited is set if the guest terminated QEMU through the
	// isa-debug-exit device. GuestExitStatus carries the decoded value
	// the guest wrote, [DebugExitSuccess] for a clean exit.
	GuestExited     bool
	GuestExitStatus int
}

// Command is a single validated QEMU command that can be run.
type Command struct {
	executable string
	args       []string

	// Timeout is the wall-clock upper bound for the whole run. The
	// guest test suite is bounded, so an emulator still running past it
	// is hanging, not progressing.
	Timeout time.Duration

	// Stderr receives the emulator's own error output.
	Stderr io.Writer
}

// NewCommand validates the spec and compiles its argument list into a
// runnable [Command].
func NewCommand(spec CommandSpec) (*Command, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	args, err := BuildArgumentStrings(spec.arguments())
	if err != nil {
		return nil, err
	}

	return &Command{
		executable: spec.Executable,
		args:       args,
	}, nil
}

// String implements [fmt.Stringer].
func (c *Command) String() string {
	return strings.Join(append([]string{c.executable}, c.args...), " ")
}

// Run starts the emulator and feeds its serial console output into the
// given monitor until the guest reports a summary, the process exits,
// or the timeout fires.
//
// The returned error covers host-side failures only. Guest-reported
// results, including timeouts, are expressed in [Result.Outcome].
func (c *Command) Run(
	ctx context.Context,
	monitor *guest.Monitor,
) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.executable, c.args...)
	cmd.Stderr = c.Stderr

	// The child gets its own process group so the termination signal
	// reaches everything it may have spawned. Pdeathsig makes sure no
	// emulator outlives an orchestrator that dies abruptly.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: unix.SIGKILL,
	}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = terminationGracePeriod

	console, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &LaunchError{Err: fmt.Errorf("console pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return Result{}, &LaunchError{Err: fmt.Errorf("start: %w", err)}
	}

	scanGroup := errgroup.Group{}
	scanGroup.Go(func() error {
		return monitor.Scan(console)
	})

	// Drain the console before reaping the child. Wait would close the
	// pipe under the scanner. On timeout the WaitDelay watchdog closes
	// the pipe, so this cannot block forever.
	scanErr := scanGroup.Wait()
	waitErr := cmd.Wait()

	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)

	result := Result{
		Outcome: monitor.Outcome(timedOut),
	}

	err = c.evalWaitError(waitErr, timedOut, &result)
	if err != nil {
		return result, err
	}

	// Scan errors on a timed out run are expected, the pipe breaks when
	// the child is killed.
	if scanErr != nil && !timedOut {
		return result, fmt.Errorf("console: %w", scanErr)
	}

	return result, nil
}

// evalWaitError classifies the child's exit status.
//
// A status communicated through the isa-debug-exit device and an exit
// forced by the run timeout are regular results. Everything else is a
// [LaunchError].
func (c *Command) evalWaitError(
	waitErr error,
	timedOut bool,
	result *Result,
) error {
	if waitErr == nil {
		return nil
	}

	if timedOut {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return &LaunchError{Err: waitErr}
	}

	status := exitErr.ExitCode()

	// isa-debug-exit statuses are always odd. Status 1 is excluded, it
	// is QEMU's own generic failure exit.
	if status > 1 && status%2 == 1 {
		result.GuestExited = true
		result.GuestExitStatus = status >> 1

		return nil
	}

	return &LaunchError{
		Err:      fmt.Errorf("%w: %w", ErrLaunch, waitErr),
		ExitCode: status,
	}
}
