// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"

	"github.com/nocturo/efirun/internal/cargo"
	"github.com/nocturo/efirun/internal/esp"
	"github.com/nocturo/efirun/internal/guest"
	"github.com/nocturo/efirun/internal/qemu"
	"github.com/nocturo/efirun/internal/target"
)

// Exit codes, stable so CI jobs can distinguish failure modes.
const (
	ExitSuccess           = 0
	ExitUsage             = 1
	ExitUnsupportedTarget = 2
	ExitBuild             = 3
	ExitPackaging         = 4
	ExitLaunch            = 5
	ExitTests             = 6
	ExitTimeout           = 7
	ExitUnexpectedExit    = 8
)

// exitCode maps an error to its process exit code. It is the only
// place this mapping happens.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, target.ErrUnsupportedTarget):
		return ExitUnsupportedTarget
	case errors.Is(err, &cargo.BuildError{}):
		return ExitBuild
	case errors.Is(err, &esp.PackagingError{}):
		return ExitPackaging
	case errors.Is(err, &qemu.SpecError{}),
		errors.Is(err, &qemu.LaunchError{}):
		return ExitLaunch
	case errors.Is(err, guest.ErrTimeout):
		return ExitTimeout
	case errors.Is(err, guest.ErrTestsFailed):
		return ExitTests
	case errors.Is(err, guest.ErrUnexpectedExit):
		return ExitUnexpectedExit
	default:
		// Anything that escapes the taxonomy was rejected before any
		// build or run work started, i.e. bad CLI input.
		return ExitUsage
	}
}
