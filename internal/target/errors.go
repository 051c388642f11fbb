// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package target

import (
	"errors"
	"strings"
)

// ErrUnsupportedTarget is returned if a target identifier is not in the
// supported set.
var ErrUnsupportedTarget = errors.New("unsupported target")

// UnsupportedError carries the rejected target identifier.
type UnsupportedError struct {
	ID string
}

// Error implements the [error] interface.
func (e *UnsupportedError) Error() string {
	return "unsupported target: " + e.ID +
		" (supported: " + strings.Join(IDs(), ", ") + ")"
}

// Is implements the [errors.Is] interface.
func (*UnsupportedError) Is(other error) bool {
	if _, ok := other.(*UnsupportedError); ok {
		return ok
	}

	return other == ErrUnsupportedTarget
}
