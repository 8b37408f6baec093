//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package transfer downloads a single HTTP(S) resource to a local file.
//
// A Transfer is an explicit state machine (requesting, streaming, closing,
// done) driven one I/O step at a time, either synchronously with Run or
// through an Executor. Progress is reported periodically to an optional
// callback, a CancelToken can stop the transfer at the next step, and the
// completion callback receives a Result exactly once on every path.
package transfer
