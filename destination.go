//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ResolveDestination computes the file path where uri will be saved.
//
// An empty dest selects downloadsDir (or DefaultDownloadsDir when that is
// empty too) and names the file after the last element of the URI path. A
// dest ending with a path separator is a directory: it is created if missing
// and the file is named the same way inside it. Any other dest is used as is.
//
// If the resulting file already exists and overwrite is false the function
// returns ErrDestinationExists together with the resolved path.
func ResolveDestination(fsys Filesystem, uri, dest string, overwrite bool, downloadsDir string) (string, error) {
	u, err := parseURI(uri)
	if err != nil {
		return "", err
	}

	if dest == "" {
		if downloadsDir == "" {
			if downloadsDir, err = DefaultDownloadsDir(); err != nil {
				return "", fmt.Errorf("locating downloads directory: %w", err)
			}
		}
		dest = filepath.Join(downloadsDir, uriBasename(u))
	} else if isDirPath(dest) {
		if !fsys.Exists(dest) {
			if err := fsys.MkdirAll(dest); err != nil {
				return "", fmt.Errorf("creating directory %s: %w", dest, err)
			}
		}
		dest = filepath.Join(dest, uriBasename(u))
	}

	if !overwrite && fsys.Exists(dest) {
		return dest, fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
	return dest, nil
}

func parseURI(uri string) (*url.URL, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURI)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURI, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURI)
	}
	return u, nil
}

// uriBasename falls back to the host name for URIs without a path.
func uriBasename(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return u.Hostname()
	}
	return base
}

func isDirPath(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(os.PathSeparator))
}
