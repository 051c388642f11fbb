// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturo/efirun/internal/cmd"
)

// testEnv is a workspace with fake cargo and qemu binaries wired up
// through a config file.
type testEnv struct {
	workspace  string
	configFile string
	cargoLog   string
}

// newTestEnv creates the workspace. qemuScript is the body of the fake
// emulator, it runs after the fake toolchain produced an artifact.
func newTestEnv(t *testing.T, qemuScript string) *testEnv {
	t.Helper()

	workspace := t.TempDir()
	binDir := t.TempDir()
	firmwareDir := t.TempDir()

	for _, name := range []string{
		"OVMF_CODE.fd", "OVMF_VARS.fd", "AAVMF_CODE.fd", "AAVMF_VARS.fd",
	} {
		err := os.WriteFile(
			filepath.Join(firmwareDir, name), []byte(name), 0o644,
		)
		require.NoError(t, err)
	}

	env := &testEnv{
		workspace: workspace,
		cargoLog:  filepath.Join(workspace, "cargo-invoked"),
	}

	// The fake toolchain produces the artifact for whatever triple it
	// is asked to build and records that it ran.
	cargoScript := fmt.Sprintf(`#!/bin/sh
touch %q
triple=$3
mkdir -p "target/$triple/debug"
printf 'MZ fake efi' > "target/$triple/debug/uefi-test-runner.efi"
`, env.cargoLog)

	cargoPath := filepath.Join(binDir, "cargo-fake")
	require.NoError(t, os.WriteFile(cargoPath, []byte(cargoScript), 0o755))

	qemuPath := filepath.Join(binDir, "qemu-fake")
	err := os.WriteFile(qemuPath, []byte("#!/bin/sh\n"+qemuScript), 0o755)
	require.NoError(t, err)

	configContent := fmt.Sprintf(`
workspace: %q
cargo: %q
firmware_dirs: [%q]
timeout: 30s
ci_timeout: 30s
qemu:
  executable: %q
  no_kvm: true
`, workspace, cargoPath, firmwareDir, qemuPath)

	env.configFile = filepath.Join(workspace, ".efirun.yaml")
	err = os.WriteFile(env.configFile, []byte(configContent), 0o644)
	require.NoError(t, err)

	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr strings.Builder

	args = append(args, "--config", e.configFile)
	rc := cmd.Run(context.Background(), args, &stdout, &stderr)

	return rc, stdout.String(), stderr.String()
}

func TestBuildCommand(t *testing.T) {
	env := newTestEnv(t, "exit 0")

	rc, _, stderr := env.run(t, "build", "--target", "cross-aarch64")
	assert.Equal(t, cmd.ExitSuccess, rc, stderr)

	assert.FileExists(t, filepath.Join(
		env.workspace,
		"target", "aarch64-unknown-uefi", "debug",
		"esp", "EFI", "BOOT", "BootAA64.efi",
	))
}

func TestBuildCommandBundle(t *testing.T) {
	env := newTestEnv(t, "exit 0")
	bundle := filepath.Join(env.workspace, "esp.cpio")

	rc, _, stderr := env.run(t, "build", "--bundle", bundle)
	assert.Equal(t, cmd.ExitSuccess, rc, stderr)
	assert.FileExists(t, bundle)
}

func TestBuildCommandUnsupportedTarget(t *testing.T) {
	env := newTestEnv(t, "exit 0")

	rc, _, _ := env.run(t, "build", "--target", "cross-riscv64")
	assert.Equal(t, cmd.ExitUnsupportedTarget, rc)

	// The resolver must reject the target before any build step runs.
	assert.NoFileExists(t, env.cargoLog)
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name       string
		qemuScript string
		args       []string
		expected   int
	}{
		{
			name: "all passed",
			qemuScript: `echo "PASS test_alloc"
echo "PASS test_boot"
echo "SUMMARY: 2/2 passed"`,
			args:     []string{"run", "--headless", "--ci"},
			expected: cmd.ExitSuccess,
		},
		{
			name: "some failed",
			qemuScript: `echo "PASS test_alloc"
echo "FAIL test_boot"
echo "SUMMARY: 1/2 passed"`,
			args:     []string{"run", "--headless", "--ci"},
			expected: cmd.ExitTests,
		},
		{
			name:       "silent guest in ci",
			qemuScript: `exit 33`,
			args:       []string{"run", "--ci"},
			expected:   cmd.ExitUnexpectedExit,
		},
		{
			name:       "silent clean guest exit is advisory",
			qemuScript: `exit 33`,
			args:       []string{"run"},
			expected:   cmd.ExitSuccess,
		},
		{
			name:       "emulator fails to boot",
			qemuScript: `echo "qemu: firmware image broken" >&2; exit 1`,
			args:       []string{"run", "--ci"},
			expected:   cmd.ExitLaunch,
		},
		{
			name:       "emulator rejects arguments",
			qemuScript: `exit 2`,
			args:       []string{"run", "--ci"},
			expected:   cmd.ExitLaunch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.qemuScript)

			rc, _, stderr := env.run(t, tt.args...)
			assert.Equal(t, tt.expected, rc, stderr)
		})
	}
}

func TestRunCommandEchoesConsole(t *testing.T) {
	env := newTestEnv(t, `echo "PASS test_alloc"
echo "SUMMARY: 1/1 passed"`)

	rc, stdout, _ := env.run(t, "run", "--headless", "--ci")
	require.Equal(t, cmd.ExitSuccess, rc)

	assert.Contains(t, stdout, "PASS test_alloc")
	assert.Contains(t, stdout, "SUMMARY: 1/1 passed")
}

func TestRunCommandTimeout(t *testing.T) {
	env := newTestEnv(t, "sleep 30")

	rc, _, _ := env.run(t,
		"run", "--headless", "--ci", "--timeout", "500ms",
	)
	assert.Equal(t, cmd.ExitTimeout, rc)
}

func TestRunCommandBuildFailure(t *testing.T) {
	env := newTestEnv(t, "exit 0")

	// Break the toolchain.
	cfg, err := os.ReadFile(env.configFile)
	require.NoError(t, err)

	broken := strings.Replace(string(cfg), "cargo:", "package: nope\ncargo:", 1)
	require.NoError(t, os.WriteFile(env.configFile, []byte(broken), 0o644))

	rc, _, _ := env.run(t, "run", "--ci")
	assert.Equal(t, cmd.ExitBuild, rc)
}

func TestUsageErrors(t *testing.T) {
	env := newTestEnv(t, "exit 0")

	t.Run("unknown subcommand", func(t *testing.T) {
		rc, _, _ := env.run(t, "deploy")
		assert.Equal(t, cmd.ExitUsage, rc)
		assert.NoFileExists(t, env.cargoLog)
	})

	t.Run("unknown flag", func(t *testing.T) {
		rc, _, _ := env.run(t, "run", "--frobnicate")
		assert.Equal(t, cmd.ExitUsage, rc)
		assert.NoFileExists(t, env.cargoLog)
	})
}
