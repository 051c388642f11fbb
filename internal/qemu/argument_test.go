// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturo/efirun/internal/qemu"
)

func TestBuildArgumentStrings(t *testing.T) {
	t.Run("builds", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("machine", "q35"),
			qemu.RepeatableArg("serial", "stdio"),
			qemu.UniqueArg("no-reboot"),
		}
		expected := []string{
			"-machine", "q35",
			"-serial", "stdio",
			"-no-reboot",
		}

		actual, err := qemu.BuildArgumentStrings(args)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("unique collision", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("machine", "q35"),
			qemu.UniqueArg("machine", "virt"),
		}

		_, err := qemu.BuildArgumentStrings(args)
		require.ErrorIs(t, err, qemu.ErrArgumentCollision)
	})

	t.Run("repeatable value collision", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.RepeatableArg("serial", "stdio"),
			qemu.RepeatableArg("serial", "stdio"),
		}

		_, err := qemu.BuildArgumentStrings(args)
		require.ErrorIs(t, err, qemu.ErrArgumentCollision)
	})

	t.Run("repeatable distinct values", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.RepeatableArg("device", "isa-debug-exit"),
			qemu.RepeatableArg("device", "virtio-rng-pci"),
		}

		actual, err := qemu.BuildArgumentStrings(args)
		require.NoError(t, err)
		assert.Len(t, actual, 4)
	})
}

func TestArgumentValueJoin(t *testing.T) {
	arg := qemu.RepeatableArg("drive",
		"if=pflash", "format=raw", "readonly=on", "file=code.fd")
	assert.Equal(t, "if=pflash,format=raw,readonly=on,file=code.fd",
		arg.Value())
	assert.Equal(t, "drive", arg.Name())
}
