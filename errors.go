//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import "errors"

// Errors reported by a transfer. The error carried in a Result, or returned
// by New and the Start functions, wraps exactly one of these so that callers
// can branch with errors.Is.
var (
	// ErrInvalidURI is returned when the URI is empty, malformed or not http(s).
	ErrInvalidURI = errors.New("invalid uri")
	// ErrDestinationExists is returned before any network activity when the
	// destination file exists and overwriting was not allowed.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrRequestFailed covers transport errors, rejected status codes and
	// responses refused by Config.AcceptFunc.
	ErrRequestFailed = errors.New("request failed")
	// ErrFileOpenFailed is reported when the destination cannot be opened for writing.
	ErrFileOpenFailed = errors.New("opening destination failed")
	// ErrStreamReadFailed is reported when reading the response body fails,
	// the server stalls longer than the inactivity timeout, or it sends more
	// bytes than announced.
	ErrStreamReadFailed = errors.New("reading stream failed")
	// ErrStreamWriteFailed is reported on write errors, including short writes.
	ErrStreamWriteFailed = errors.New("writing destination failed")
	// ErrStreamCloseFailed is never a terminal error: it only appears in
	// Result.CloseErr.
	ErrStreamCloseFailed = errors.New("closing stream failed")
	// ErrCancelled is the error of a cancelled transfer.
	ErrCancelled = errors.New("transfer cancelled")
)
