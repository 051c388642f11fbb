// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package esp

import "errors"

var (
	// ErrFirmwareNotFound is returned if a platform firmware image is
	// not present in any of the configured search directories.
	ErrFirmwareNotFound = errors.New("firmware image not found")

	// ErrPathCollision is returned if a file cannot be placed in the
	// image because its path is occupied by something else.
	ErrPathCollision = errors.New("path collision")
)

// PackagingError wraps any error occurring during image assembly.
type PackagingError struct {
	Err error
}

// Error implements the [error] interface.
func (e *PackagingError) Error() string {
	return "packaging: " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*PackagingError) Is(other error) bool {
	_, ok := other.(*PackagingError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *PackagingError) Unwrap() error {
	return e.Err
}
