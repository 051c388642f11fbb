// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

// Status is the terminal state of a monitored guest run.
type Status string

const (
	// StatusAllPassed means a summary marker was seen and no test failed.
	StatusAllPassed Status = "all-passed"

	// StatusSomeFailed means at least one test failed, or the summary
	// counts disagree with the observed per-test markers.
	StatusSomeFailed Status = "some-failed"

	// StatusUnexpectedExit means the console stream ended before a
	// summary marker was seen. A suite that never reports is a failure,
	// not an implicit pass.
	StatusUnexpectedExit Status = "unexpected-exit"

	// StatusTimeout means the wall-clock timeout fired before a summary
	// marker was seen.
	StatusTimeout Status = "timeout"
)

func (s Status) String() string {
	return string(s)
}

// Outcome is the aggregate result of one monitored guest run. It is
// terminal: created once the console stream is done or the run timed
// out, never mutated afterwards.
type Outcome struct {
	Status Status

	// Tests are the per-test markers in the order they were observed.
	Tests []TestResult

	// Passed and Total are the counts from the summary marker. Zero
	// until a summary marker was seen.
	Passed int
	Total  int
}

// Err maps the outcome to its error, nil for [StatusAllPassed].
func (o Outcome) Err() error {
	switch o.Status {
	case StatusAllPassed:
		return nil
	case StatusSomeFailed:
		return ErrTestsFailed
	case StatusTimeout:
		return ErrTimeout
	default:
		return ErrUnexpectedExit
	}
}

// Failed returns the failed test results.
func (o Outcome) Failed() []TestResult {
	var failed []TestResult

	for _, result := range o.Tests {
		if !result.Passed {
			failed = append(failed, result)
		}
	}

	return failed
}
