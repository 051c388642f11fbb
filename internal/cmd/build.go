// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nocturo/efirun/internal/cargo"
	"github.com/nocturo/efirun/internal/config"
	"github.com/nocturo/efirun/internal/esp"
	"github.com/nocturo/efirun/internal/target"
)

func newBuildCommand(opts *options) *cobra.Command {
	var bundlePath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the firmware test binary and assemble the boot image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			tgt, err := opts.resolveTarget()
			if err != nil {
				return err
			}

			_, image, err := buildImage(cmd.Context(), opts, cfg, tgt)
			if err != nil {
				return err
			}

			if bundlePath == "" {
				return nil
			}

			return writeBundle(image, bundlePath)
		},
	}

	cmd.Flags().StringVar(&bundlePath, "bundle", "",
		"write the assembled ESP as a cpio archive to the given path")

	return cmd
}

// buildImage runs the build half of the pipeline: toolchain build plus
// image assembly. Both `build` and `run` go through it.
func buildImage(
	ctx context.Context,
	opts *options,
	cfg config.Config,
	tgt target.Target,
) (cargo.Artifact, esp.Image, error) {
	builder := &cargo.Builder{
		Executable:   cfg.Cargo,
		WorkspaceDir: cfg.Workspace,
		Package:      cfg.Package,
		Profile:      cfg.Profile,
		Features:     cfg.Features,
	}

	artifact, err := builder.Build(ctx, tgt)
	if err != nil {
		// Surface captured compiler output before the error is mapped
		// to an exit code.
		var buildErr *cargo.BuildError
		if errors.As(err, &buildErr) && buildErr.Diagnostics != "" {
			fmt.Fprint(opts.stderr, buildErr.Diagnostics)
		}

		return cargo.Artifact{}, esp.Image{}, err
	}

	slog.Debug("Built firmware binary",
		slog.String("path", artifact.Path),
		slog.Int64("size", artifact.Size))

	assembler := &esp.Assembler{
		BuildDir:     filepath.Dir(artifact.Path),
		FirmwareDirs: append([]string{cfg.Workspace}, cfg.FirmwareDirs...),
	}

	image, err := assembler.Assemble(artifact)
	if err != nil {
		return cargo.Artifact{}, esp.Image{}, err
	}

	slog.Debug("Assembled boot image", slog.String("esp", image.ESPDir))

	return artifact, image, nil
}

func writeBundle(image esp.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &esp.PackagingError{Err: fmt.Errorf("bundle file: %w", err)}
	}
	defer file.Close()

	if err := image.Bundle(file); err != nil {
		return err
	}

	slog.Info("Wrote ESP bundle", slog.String("path", path))

	return nil
}
