// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package esp assembles the EFI System Partition directory the
// emulator boots from.
//
// The assembled layout follows the UEFI removable media path: the
// firmware binary is placed at /EFI/BOOT/<BootFile> so the platform
// firmware picks it up without boot variables. Assembly is idempotent,
// re-running with the same artifact produces a byte-identical image.
package esp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/nocturo/efirun/internal/cargo"
)

const espDirName = "esp"

// Assembler places build artifacts into a bootable ESP layout.
type Assembler struct {
	// BuildDir is the directory the ESP and the writable firmware vars
	// copy are created in, usually the target's build output directory.
	BuildDir string

	// FirmwareDirs are searched, in order, for the target's platform
	// firmware images.
	FirmwareDirs []string
}

// Image is an assembled bootable image, consumed read-only by the
// emulator launcher.
type Image struct {
	// ESPDir is the root of the assembled EFI System Partition.
	ESPDir string

	// BootPath is the firmware binary inside the ESP.
	BootPath string

	// FirmwareCode is the platform firmware code image, read-only and
	// shared between runs.
	FirmwareCode string

	// FirmwareVars is this image's private writable copy of the
	// firmware vars image.
	FirmwareVars string
}

// Assemble creates a bootable image from the given artifact.
//
// Concurrent assembly into the same build dir is serialized with a file
// lock so two invocations cannot interleave partial writes.
func (a *Assembler) Assemble(artifact cargo.Artifact) (Image, error) {
	code, err := a.findFirmware(artifact.Target.FirmwareCode)
	if err != nil {
		return Image{}, err
	}

	vars, err := a.findFirmware(artifact.Target.FirmwareVars)
	if err != nil {
		return Image{}, err
	}

	lock := flock.New(filepath.Join(a.BuildDir, ".esp.lock"))
	if err := lock.Lock(); err != nil {
		return Image{}, &PackagingError{
			Err: fmt.Errorf("lock build dir: %w", err),
		}
	}
	defer lock.Unlock() //nolint:errcheck

	espDir := filepath.Join(a.BuildDir, espDirName)
	bootDir := filepath.Join(espDir, "EFI", "BOOT")

	if err := os.MkdirAll(bootDir, 0o755); err != nil {
		return Image{}, &PackagingError{
			Err: fmt.Errorf("create boot dir: %w", err),
		}
	}

	bootPath := filepath.Join(bootDir, artifact.Target.BootFile)

	if err := a.install(artifact.Path, bootPath); err != nil {
		return Image{}, err
	}

	varsCopy := filepath.Join(a.BuildDir, artifact.Target.FirmwareVars)

	if err := a.install(vars, varsCopy); err != nil {
		return Image{}, err
	}

	return Image{
		ESPDir:       espDir,
		BootPath:     bootPath,
		FirmwareCode: code,
		FirmwareVars: varsCopy,
	}, nil
}

// findFirmware resolves a firmware image name against the configured
// search directories.
func (a *Assembler) findFirmware(name string) (string, error) {
	for _, dir := range a.FirmwareDirs {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	return "", &PackagingError{
		Err: fmt.Errorf("%w: %s (searched %v)",
			ErrFirmwareNotFound, name, a.FirmwareDirs),
	}
}

// install copies src to dst through a staged file in the destination
// directory, so readers never observe a partially written file.
func (a *Assembler) install(src, dst string) error {
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return &PackagingError{
			Err: fmt.Errorf("%w: %s is a directory", ErrPathCollision, dst),
		}
	}

	staged := filepath.Join(
		filepath.Dir(dst), ".stage-"+uuid.NewString(),
	)

	if err := copyFile(src, staged); err != nil {
		_ = os.Remove(staged)
		return &PackagingError{Err: err}
	}

	if err := os.Rename(staged, dst); err != nil {
		_ = os.Remove(staged)
		return &PackagingError{Err: fmt.Errorf("install %s: %w", dst, err)}
	}

	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}

	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	return nil
}
