// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guest implements the host side of the guest test marker
// protocol.
//
// The in-guest test harness reports results on the serial console, one
// marker per line. Protocol version 1:
//
//	PASS <name>
//	FAIL <name>[ <reason>]
//	SUMMARY: <passed>/<total> passed
//
// Lines that are not markers are ordinary console output and are passed
// through untouched. The SUMMARY line is terminal. A stream that ends
// without one never counts as a pass.
package guest

import (
	"fmt"
	"regexp"
	"strings"
)

// ProtocolVersion is the guest marker protocol version this package
// implements.
const ProtocolVersion = 1

const (
	passMarker    = "PASS"
	failMarker    = "FAIL"
	summaryMarker = "SUMMARY:"
)

var summaryRE = regexp.MustCompile(`^SUMMARY: ([0-9]+)/([0-9]+) passed$`)

// ansiEscapeRE matches ANSI escape sequences. The guest firmware writes
// colored output to the serial console, which must be scrubbed before
// marker matching.
var ansiEscapeRE = regexp.MustCompile(`(\x9b|\x1b\[)[0-?]*[ -/]*[@-~]`)

// ScrubLine removes ANSI escape sequences and surrounding whitespace
// from a console line.
func ScrubLine(line string) string {
	return strings.TrimSpace(ansiEscapeRE.ReplaceAllString(line, ""))
}

// TestResult is a single per-test marker reported by the guest.
type TestResult struct {
	Name   string
	Passed bool
	Reason string
}

// SprintPass creates the marker line a guest harness emits for a passed
// test. It exists so host-side tests and the guest harness agree on the
// exact format.
func SprintPass(name string) string {
	return passMarker + " " + name
}

// SprintFail creates the marker line for a failed test.
func SprintFail(name, reason string) string {
	line := failMarker + " " + name
	if reason != "" {
		line += " " + reason
	}

	return line
}

// SprintSummary creates the terminal summary marker line.
func SprintSummary(passed, total int) string {
	return fmt.Sprintf("%s %d/%d passed", summaryMarker, passed, total)
}
