// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturo/efirun/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), config.DefaultFile))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "uefi-test-runner", cfg.Package)
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Std())
}

func TestLoad(t *testing.T) {
	content := `
workspace: /src/firmware
package: fw-tests
profile: release
timeout: 90s
ci_timeout: 45s
firmware_dirs:
  - /opt/ovmf
qemu:
  executable: /opt/qemu/bin/qemu-system-x86_64
  memory: 256
  smp: 2
`

	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/src/firmware", cfg.Workspace)
	assert.Equal(t, "fw-tests", cfg.Package)
	assert.Equal(t, "release", cfg.Profile)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 45*time.Second, cfg.CITimeout.Std())
	assert.Equal(t, []string{"/opt/ovmf"}, cfg.FirmwareDirs)
	assert.Equal(t, "/opt/qemu/bin/qemu-system-x86_64", cfg.QEMU.Executable)
	assert.EqualValues(t, 256, cfg.QEMU.Memory)
	assert.EqualValues(t, 2, cfg.QEMU.SMP)

	// Unset keys keep their defaults.
	assert.Equal(t, "cargo", cfg.Cargo)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "broken yaml",
			content: "workspace: [",
		},
		{
			name:    "bad duration",
			content: "timeout: soon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), config.DefaultFile)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}
