// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"errors"
	"fmt"
)

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered
	// equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrLaunch is returned if the emulator process could not be started
	// or exited with a status that is not explained by a guest-initiated
	// exit or the run timeout.
	ErrLaunch = errors.New("emulator failed")
)

// SpecError indicates an invalid or inconsistent [CommandSpec].
type SpecError struct {
	msg string
}

// Error implements the [error] interface.
func (e *SpecError) Error() string {
	return "command spec: " + e.msg
}

// Is implements the [errors.Is] interface.
func (*SpecError) Is(other error) bool {
	_, ok := other.(*SpecError)
	return ok
}

// LaunchError wraps errors of the emulator child process itself, as
// opposed to results reported by the guest running inside it.
type LaunchError struct {
	Err      error
	ExitCode int
}

// Error implements the [error] interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch: %v", e.Err)
}

// Is implements the [errors.Is] interface.
func (*LaunchError) Is(other error) bool {
	_, ok := other.(*LaunchError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *LaunchError) Unwrap() error {
	return e.Err
}
