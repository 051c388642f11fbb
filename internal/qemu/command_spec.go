// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"strconv"

	"github.com/nocturo/efirun/internal/target"
)

const (
	machineTypeQ35  = "q35"
	machineTypeVirt = "virt"
)

// debugExitIOBase is the IO port of the isa-debug-exit device. The guest
// writes an exit value to this port to terminate QEMU.
const debugExitIOBase = "0xf4"

// CommandSpec defines the parameters for a [Command].
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// Path to the platform firmware code pflash image, attached
	// read-only.
	FirmwareCode string

	// Path to the writable platform firmware vars pflash image. This
	// must be a private copy, QEMU writes to it.
	FirmwareVars string

	// Path to the EFI System Partition directory, attached as a
	// virtual VVFAT drive the firmware boots from.
	ESPDir string

	// QEMU machine type to use. Depends on the QEMU binary used.
	Machine string

	// CPU type to use. Depends on machine type and QEMU binary used.
	CPU string

	// Number of CPUs for the guest.
	SMP uint64

	// Memory for the machine in MB.
	Memory uint64

	// Disable KVM support.
	NoKVM bool

	// Do not attach a window to QEMU's display. An emulated VGA device
	// stays attached, so the guest can still render and screenshots
	// remain possible.
	Headless bool

	// Attach the isa-debug-exit device so the guest can terminate QEMU
	// with a status code. Only supported on PC-like machines.
	DebugExit bool

	// ExtraArgs are extra arguments that are passed to the QEMU command.
	// They must not interfere with the essential arguments set by the
	// command itself or an error will be returned by [NewCommand].
	ExtraArgs []Argument
}

// AddDefaultsFor fills unset fields with the defaults of the given
// target.
func (s *CommandSpec) AddDefaultsFor(tgt target.Target) {
	if s.Executable == "" {
		s.Executable = tgt.QEMUExecutable
	}

	if s.Machine == "" {
		s.Machine = tgt.Machine
	}

	if s.CPU == "" {
		s.CPU = tgt.CPU
	}

	if !s.NoKVM {
		s.NoKVM = !tgt.KVMAvailable()
	}

	s.DebugExit = tgt.DebugExit
}

// Validate checks for missing inputs and known incompatibilities.
func (s *CommandSpec) Validate() error {
	switch {
	case s.Executable == "":
		return &SpecError{"no QEMU executable given"}
	case s.FirmwareCode == "":
		return &SpecError{"no firmware code image given"}
	case s.FirmwareVars == "":
		return &SpecError{"no firmware vars image given"}
	case s.ESPDir == "":
		return &SpecError{"no ESP directory given"}
	}

	if s.DebugExit && s.Machine == machineTypeVirt {
		return &SpecError{"isa-debug-exit is not available on virt machines"}
	}

	return nil
}

// arguments compiles the argument list for the QEMU command.
func (s *CommandSpec) arguments() []Argument {
	args := []Argument{
		// Disable all default devices. QEMU enables a number of devices
		// by default which only slow down the firmware boot.
		UniqueArg("nodefaults"),
		// Do not load any user config files.
		UniqueArg("no-user-config"),
		// A guest triple fault must end the run, not restart it.
		UniqueArg("no-reboot"),
	}

	if s.Machine != "" {
		args = append(args, UniqueArg("machine", s.Machine))
	}

	if s.CPU != "" {
		args = append(args, UniqueArg("cpu", s.CPU))
	}

	if s.SMP != 0 {
		args = append(args, UniqueArg("smp", strconv.FormatUint(s.SMP, 10)))
	}

	if s.Memory != 0 {
		args = append(args, UniqueArg("m", strconv.FormatUint(s.Memory, 10)))
	}

	if !s.NoKVM {
		args = append(args, UniqueArg("enable-kvm"))
	}

	args = append(args,
		// Platform firmware as pflash pair. Code is shared read-only,
		// vars is this run's private writable copy.
		RepeatableArg("drive",
			"if=pflash", "format=raw", "readonly=on", "file="+s.FirmwareCode),
		RepeatableArg("drive",
			"if=pflash", "format=raw", "file="+s.FirmwareVars),
		// The assembled ESP directory as a virtual FAT drive.
		RepeatableArg("drive", "format=raw", "file=fat:rw:"+s.ESPDir),
		// The firmware connects the UEFI stdout and stdin to the first
		// serial port, which talks to our stdio.
		RepeatableArg("serial", "stdio"),
		UniqueArg("vga", "std"),
	)

	if s.Headless {
		args = append(args, UniqueArg("display", "none"))
	}

	if s.DebugExit {
		args = append(args, RepeatableArg("device",
			"isa-debug-exit", "iobase="+debugExitIOBase, "iosize=0x04"))
	}

	return append(args, s.ExtraArgs...)
}
