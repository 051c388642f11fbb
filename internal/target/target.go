// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package target resolves build target identifiers into the fixed set of
// supported (architecture, toolchain triple, firmware) tuples.
package target

import (
	"os"
	"runtime"
)

// Arch is a guest CPU architecture.
type Arch string

// Supported guest architectures.
const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

// Native is the architecture of the host. Using the same architecture for
// the guest allows using KVM, if available.
const Native Arch = Arch(runtime.GOARCH)

func (a Arch) String() string {
	return string(a)
}

func (a Arch) IsNative() bool {
	return Native == a
}

// KVMAvailable checks if KVM support is available for the architecture.
func (a Arch) KVMAvailable() bool {
	if !a.IsNative() {
		return false
	}

	f, err := os.OpenFile("/dev/kvm", os.O_WRONLY, 0)
	_ = f.Close()

	return err == nil
}

// Target is a resolved build target. Exactly one is active per invocation.
type Target struct {
	// ID is the identifier the target was resolved from.
	ID string

	// Arch is the guest CPU architecture.
	Arch Arch

	// Triple is the toolchain target triple the firmware binary is built
	// for.
	Triple string

	// BootFile is the removable-media boot file name the UEFI firmware
	// looks up on the EFI System Partition, below /EFI/BOOT.
	BootFile string

	// QEMUExecutable is the default qemu-system binary for the target.
	QEMUExecutable string

	// Machine is the QEMU machine type to boot with.
	Machine string

	// CPU is the QEMU CPU type. Empty means QEMU's machine default.
	CPU string

	// FirmwareCode and FirmwareVars are the base names of the platform
	// firmware pflash pair the target boots with. They are searched in the
	// configured firmware directories.
	FirmwareCode string
	FirmwareVars string

	// DebugExit is set if the machine supports the isa-debug-exit device
	// the guest uses to terminate QEMU with a status code.
	DebugExit bool
}

// Supported target identifiers.
const (
	NativeX8664  = "native-x86_64"
	CrossAarch64 = "cross-aarch64"
)

var targets = map[string]Target{
	NativeX8664: {
		ID:             NativeX8664,
		Arch:           AMD64,
		Triple:         "x86_64-unknown-uefi",
		BootFile:       "BootX64.efi",
		QEMUExecutable: "qemu-system-x86_64",
		Machine:        "q35",
		FirmwareCode:   "OVMF_CODE.fd",
		FirmwareVars:   "OVMF_VARS.fd",
		DebugExit:      true,
	},
	CrossAarch64: {
		ID:             CrossAarch64,
		Arch:           ARM64,
		Triple:         "aarch64-unknown-uefi",
		BootFile:       "BootAA64.efi",
		QEMUExecutable: "qemu-system-aarch64",
		Machine:        "virt",
		CPU:            "cortex-a72",
		FirmwareCode:   "AAVMF_CODE.fd",
		FirmwareVars:   "AAVMF_VARS.fd",
	},
}

// IDs returns the supported target identifiers in stable order.
func IDs() []string {
	return []string{NativeX8664, CrossAarch64}
}

// Resolve validates the given identifier and returns the resolved
// [Target]. It has no side effects.
func Resolve(id string) (Target, error) {
	t, exists := targets[id]
	if !exists {
		return Target{}, &UnsupportedError{ID: id}
	}

	return t, nil
}

// KVMAvailable checks if the resolved target can run hardware
// accelerated on this host.
func (t Target) KVMAvailable() bool {
	return t.Arch.KVMAvailable()
}
