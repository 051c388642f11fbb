// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// monitorState tracks protocol progress while the emulator runs.
type monitorState int

const (
	// stateWaiting means no marker has been seen yet. The guest may
	// still be booting.
	stateWaiting monitorState = iota
	// stateRunning means at least one per-test marker has been seen.
	stateRunning
	// stateDone means the summary marker has been seen. Any further
	// markers are ignored.
	stateDone
)

// Monitor scans the guest console stream line by line for test markers.
//
// It is fed incrementally while the emulator process runs, so a hanging
// guest is detected by the launcher's timeout rather than only at EOF.
// Scrubbed console lines are echoed to Echo, if set, to allow logging
// and inspection of the run.
type Monitor struct {
	// Echo receives every scrubbed console line. May be nil.
	Echo io.Writer

	state   monitorState
	results []TestResult
	passed  int
	total   int
}

// Scan reads the console stream until EOF, parsing every line.
//
// It returns an error only for stream-level failures. Protocol-level
// results are available via [Monitor.Outcome] afterwards.
func (m *Monitor) Scan(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := ScrubLine(scanner.Text())
		if line == "" {
			continue
		}

		m.parseLine(line)

		if err := m.echoLine(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan console: %w", err)
	}

	return nil
}

func (m *Monitor) echoLine(line string) error {
	if m.Echo == nil {
		return nil
	}

	if _, err := io.WriteString(m.Echo, line+"\n"); err != nil {
		return fmt.Errorf("echo console: %w", err)
	}

	return nil
}

func (m *Monitor) parseLine(line string) {
	if m.state == stateDone {
		return
	}

	switch {
	case strings.HasPrefix(line, passMarker+" "):
		m.state = stateRunning
		m.results = append(m.results, TestResult{
			Name:   strings.TrimPrefix(line, passMarker+" "),
			Passed: true,
		})
	case strings.HasPrefix(line, failMarker+" "):
		m.state = stateRunning

		name, reason, _ := strings.Cut(
			strings.TrimPrefix(line, failMarker+" "), " ",
		)
		m.results = append(m.results, TestResult{
			Name:   name,
			Reason: reason,
		})
	default:
		m.parseSummary(line)
	}
}

func (m *Monitor) parseSummary(line string) {
	matches := summaryRE.FindStringSubmatch(line)
	if matches == nil {
		return
	}

	// The groups only match digits, so errors cannot occur.
	m.passed, _ = strconv.Atoi(matches[1])
	m.total, _ = strconv.Atoi(matches[2])
	m.state = stateDone
}

// Outcome creates the terminal [Outcome] for the run.
//
// It must be called once the console stream is exhausted or, with
// timedOut set, once the launcher gave up on the run.
func (m *Monitor) Outcome(timedOut bool) Outcome {
	outcome := Outcome{
		Tests:  m.results,
		Passed: m.passed,
		Total:  m.total,
	}

	switch {
	case m.state != stateDone && timedOut:
		outcome.Status = StatusTimeout
	case m.state != stateDone:
		outcome.Status = StatusUnexpectedExit
	case m.failures() > 0 || m.passed != m.total:
		outcome.Status = StatusSomeFailed
	default:
		outcome.Status = StatusAllPassed
	}

	return outcome
}

func (m *Monitor) failures() int {
	var failures int

	for _, result := range m.results {
		if !result.Passed {
			failures++
		}
	}

	return failures
}
