// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the optional workspace configuration file.
//
// Values from the file provide defaults only. CLI flags override them,
// and the resulting run configuration is immutable for the rest of the
// invocation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the workspace
// root.
const DefaultFile = ".efirun.yaml"

// Duration wraps [time.Duration] with yaml support for strings like
// "90s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	*d = Duration(parsed)

	return nil
}

// Std returns the wrapped [time.Duration].
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// QEMU holds emulator overrides.
type QEMU struct {
	// Executable overrides the target's default qemu-system binary.
	Executable string `yaml:"executable"`

	// Memory for the guest in MB.
	Memory uint64 `yaml:"memory"`

	// SMP is the number of guest CPUs. Zero leaves QEMU's default.
	SMP uint64 `yaml:"smp"`

	// NoKVM disables hardware acceleration even for native targets.
	NoKVM bool `yaml:"no_kvm"`
}

// Config is the workspace configuration.
type Config struct {
	// Workspace is the directory containing the top-level Cargo.toml.
	Workspace string `yaml:"workspace"`

	// Package is the crate that builds into the firmware test binary.
	Package string `yaml:"package"`

	// Profile is the cargo build profile.
	Profile string `yaml:"profile"`

	// Cargo is the cargo binary to invoke.
	Cargo string `yaml:"cargo"`

	// Features are crate features enabled for test runs.
	Features []string `yaml:"features"`

	// FirmwareDirs are searched for the platform firmware images. The
	// workspace directory is always searched first.
	FirmwareDirs []string `yaml:"firmware_dirs"`

	// Timeout is the wall-clock bound for one emulator run. CITimeout
	// replaces it when running with --ci.
	Timeout   Duration `yaml:"timeout"`
	CITimeout Duration `yaml:"ci_timeout"`

	QEMU QEMU `yaml:"qemu"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workspace: ".",
		Package:   "uefi-test-runner",
		Profile:   "debug",
		Cargo:     "cargo",
		Features:  []string{"qemu-exit"},
		FirmwareDirs: []string{
			"/usr/share/OVMF",
			"/usr/share/ovmf",
			"/usr/share/AAVMF",
			"/usr/share/qemu-efi-aarch64",
		},
		Timeout:   Duration(5 * time.Minute),
		CITimeout: Duration(2 * time.Minute),
		QEMU: QEMU{
			Memory: 128,
		},
	}
}

// Load reads the configuration file at the given path on top of the
// built-in defaults. A missing file is not an error, the defaults are
// returned as is.
func Load(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
