// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"strings"
)

// Argument is a single QEMU command line argument with an optional
// value.
type Argument struct {
	name          string
	value         string
	nonUniqueName bool
}

// UniqueArg returns a new [Argument] that must be the only argument with
// this name. At most one value is expected.
func UniqueArg(name string, value ...string) Argument {
	return Argument{
		name:  name,
		value: strings.Join(value, ","),
	}
}

// RepeatableArg returns a new [Argument] that may occur multiple times
// with the same name, as long as the values differ. Multiple values are
// joined with commas, as QEMU property lists expect.
func RepeatableArg(name string, value ...string) Argument {
	return Argument{
		name:          name,
		value:         strings.Join(value, ","),
		nonUniqueName: true,
	}
}

// Name returns the name of the argument.
func (a Argument) Name() string {
	return a.name
}

// Value returns the value of the argument.
func (a Argument) Value() string {
	return a.value
}

// String returns the leading name part of the argument as it appears on
// the command line.
func (a Argument) String() string {
	return "-" + a.name
}

// Equal compares the argument to another one. Unique arguments collide
// on name alone, repeatable arguments only on identical name and value.
func (a Argument) Equal(other Argument) bool {
	if a.name != other.name {
		return false
	}

	if a.nonUniqueName && other.nonUniqueName {
		return a.value == other.value
	}

	return true
}

// BuildArgumentStrings compiles the argument strings for the given
// arguments. It fails if any arguments collide.
func BuildArgumentStrings(args []Argument) ([]string, error) {
	result := make([]string, 0, len(args)*2)
	seen := make([]Argument, 0, len(args))

	for _, arg := range args {
		for _, prev := range seen {
			if arg.Equal(prev) {
				return nil, fmt.Errorf("%w: %s", ErrArgumentCollision, arg)
			}
		}

		seen = append(seen, arg)
		result = append(result, arg.String())

		if arg.value != "" {
			result = append(result, arg.value)
		}
	}

	return result, nil
}
