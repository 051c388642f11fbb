// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cargo

import "errors"

// ErrArtifactMissing is returned if the toolchain exited successfully
// but the expected binary does not exist.
var ErrArtifactMissing = errors.New("build artifact missing")

// BuildError wraps a toolchain failure together with the captured
// compiler diagnostics.
type BuildError struct {
	Err         error
	Diagnostics string
}

// Error implements the [error] interface.
func (e *BuildError) Error() string {
	return "build: " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*BuildError) Is(other error) bool {
	_, ok := other.(*BuildError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BuildError) Unwrap() error {
	return e.Err
}
