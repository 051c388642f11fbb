// SPDX-FileCopyrightText: 2026 The efirun authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package esp

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/cpio"
)

const numLinks = 2

// Bundle writes the assembled ESP tree as a cpio archive.
//
// The archive is meant for CI artifact upload, so a failed run's boot
// image can be downloaded and booted locally. Entries are written in
// lexical walk order, making the bundle reproducible for identical
// trees.
func (i Image) Bundle(w io.Writer) error {
	writer := cpio.NewWriter(w)

	err := fs.WalkDir(os.DirFS(i.ESPDir), ".",
		func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path == "." {
				return nil
			}

			return writeEntry(writer, i.ESPDir, path, entry)
		})
	if err != nil {
		return &PackagingError{Err: fmt.Errorf("bundle: %w", err)}
	}

	if err := writer.Close(); err != nil {
		return &PackagingError{Err: fmt.Errorf("bundle close: %w", err)}
	}

	return nil
}

func writeEntry(
	writer *cpio.Writer,
	root, path string,
	entry fs.DirEntry,
) error {
	if entry.IsDir() {
		header := &cpio.Header{
			Name:  path,
			Mode:  cpio.TypeDir | cpio.ModePerm,
			Links: numLinks,
		}

		return writer.WriteHeader(header)
	}

	info, err := entry.Info()
	if err != nil {
		return err
	}

	header := &cpio.Header{
		Name: path,
		Mode: cpio.TypeReg | cpio.FileMode(info.Mode().Perm()),
		Size: info.Size(),
	}

	if err := writer.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(filepath.Join(root, path))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)

	return err
}
