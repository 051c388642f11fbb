// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/nocturo/efirun/internal/guest"
)

// reporter prints the final run outcome for humans. Color is dropped
// in CI mode and when stderr is not a terminal, so logs stay grep-able.
type reporter struct {
	out   io.Writer
	good  *color.Color
	bad   *color.Color
	faint *color.Color
}

func newReporter(out io.Writer, ci bool) *reporter {
	r := &reporter{
		out:   out,
		good:  color.New(color.FgGreen, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		faint: color.New(color.Faint),
	}

	file, isFile := out.(*os.File)
	colored := isFile && isatty.IsTerminal(file.Fd()) && !ci

	if !colored {
		r.good.DisableColor()
		r.bad.DisableColor()
		r.faint.DisableColor()
	}

	return r
}

func (r *reporter) report(outcome guest.Outcome) {
	fmt.Fprintln(r.out)

	switch outcome.Status {
	case guest.StatusAllPassed:
		r.good.Fprintf(r.out, "ok: %d/%d tests passed\n",
			outcome.Passed, outcome.Total)
	case guest.StatusSomeFailed:
		r.bad.Fprintf(r.out, "FAILED: %d/%d tests passed\n",
			outcome.Passed, outcome.Total)

		for _, result := range outcome.Failed() {
			line := "  " + result.Name
			if result.Reason != "" {
				line += ": " + result.Reason
			}

			r.faint.Fprintln(r.out, line)
		}
	case guest.StatusTimeout:
		r.bad.Fprintf(r.out, "TIMEOUT after %d observed test(s)\n",
			len(outcome.Tests))
	default:
		r.bad.Fprintln(r.out, "NO SUMMARY: guest exited before reporting")
	}
}
