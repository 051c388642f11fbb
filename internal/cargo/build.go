// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cargo drives the Rust toolchain build that produces the
// firmware test binary.
package cargo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nocturo/efirun/internal/target"
)

// Build profiles. Cargo derives the artifact directory name from them.
const (
	ProfileDebug   = "debug"
	ProfileRelease = "release"
)

// Builder invokes cargo for a single resolved target.
type Builder struct {
	// Executable is the cargo binary to invoke.
	Executable string

	// WorkspaceDir is the directory containing the workspace-level
	// Cargo.toml.
	WorkspaceDir string

	// Package is the crate that builds into the firmware test binary.
	Package string

	// Profile is the build profile, [ProfileDebug] or [ProfileRelease].
	Profile string

	// Features are additional crate features to enable.
	Features []string
}

// Artifact is the compiled firmware binary.
//
// It is produced by [Builder.Build] and immutable afterwards. Ownership
// passes to the image assembler.
type Artifact struct {
	// Path to the compiled EFI binary.
	Path string

	// Target the artifact was built for.
	Target target.Target

	// ModTime and Size of the binary, recorded right after the build.
	ModTime time.Time
	Size    int64
}

// ArtifactPath returns the path cargo places the binary at for the
// given target.
func (b *Builder) ArtifactPath(tgt target.Target) string {
	return filepath.Join(
		b.WorkspaceDir, "target", tgt.Triple, b.Profile, b.Package+".efi",
	)
}

func (b *Builder) arguments(tgt target.Target) []string {
	args := []string{
		"build",
		"--target", tgt.Triple,
		"--package", b.Package,
	}

	if b.Profile == ProfileRelease {
		args = append(args, "--release")
	}

	for _, feature := range b.Features {
		args = append(args, "--features", feature)
	}

	return args
}

// Build compiles the firmware binary for the given target.
//
// It succeeds only if cargo exits zero and the expected binary exists
// afterwards. A zero exit with a missing binary is a silent partial
// failure and is reported like any other build failure. Builds are
// never retried, a flaky compiler success would mask real regressions.
func (b *Builder) Build(
	ctx context.Context,
	tgt target.Target,
) (Artifact, error) {
	args := b.arguments(tgt)

	cmd := exec.CommandContext(ctx, b.Executable, args...)
	cmd.Dir = b.WorkspaceDir

	// Stray RUSTFLAGS from the calling environment must not leak into
	// the firmware build.
	cmd.Env = append(os.Environ(), "RUSTFLAGS=")

	slog.Debug("Running toolchain build", slog.String("command", cmd.String()))

	var diagnostics bytes.Buffer

	cmd.Stdout = &diagnostics
	cmd.Stderr = &diagnostics

	if err := cmd.Run(); err != nil {
		return Artifact{}, &BuildError{
			Err:         fmt.Errorf("%s: %w", b.Executable, err),
			Diagnostics: diagnostics.String(),
		}
	}

	path := b.ArtifactPath(tgt)

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, &BuildError{
			Err:         fmt.Errorf("%w: %s", ErrArtifactMissing, path),
			Diagnostics: diagnostics.String(),
		}
	}

	return Artifact{
		Path:    path,
		Target:  tgt,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}
