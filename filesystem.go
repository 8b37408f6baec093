//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"io"
	"os"
	"path/filepath"
)

// Sink is the writable destination of a transfer.
type Sink interface {
	io.Writer
	// Sync flushes written data to stable storage.
	Sync() error
	Close() error
}

// Filesystem is the storage used to resolve and write destinations.
type Filesystem interface {
	// Exists reports whether something is present at path. Paths that cannot
	// be inspected are reported as absent, so that opening them fails later.
	Exists(path string) bool
	// MkdirAll creates a directory and its missing parents.
	MkdirAll(path string) error
	// Create opens path for writing. With overwrite an existing file is
	// truncated, otherwise an existing file makes Create fail.
	Create(path string, overwrite bool) (Sink, error)
}

// OSFilesystem is the Filesystem backed by the operating system.
type OSFilesystem struct{}

// Exists implements Filesystem.
func (OSFilesystem) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// MkdirAll implements Filesystem.
func (OSFilesystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0700)
}

// Create implements Filesystem.
func (OSFilesystem) Create(path string, overwrite bool) (Sink, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	return os.OpenFile(path, flags, 0644)
}

// DefaultDownloadsDir returns the user's download directory: $XDG_DOWNLOAD_DIR
// when set, otherwise "Downloads" inside the home directory.
func DefaultDownloadsDir() (string, error) {
	if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}
