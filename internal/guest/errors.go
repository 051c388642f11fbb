// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import "errors"

var (
	// ErrTestsFailed is returned if the guest reported failing tests.
	ErrTestsFailed = errors.New("guest reported failing tests")

	// ErrUnexpectedExit is returned if the console stream ended before
	// the guest printed a summary marker.
	ErrUnexpectedExit = errors.New("guest exited before reporting a summary")

	// ErrTimeout is returned if the guest did not report a summary
	// before the wall-clock timeout.
	ErrTimeout = errors.New("guest timed out")
)
