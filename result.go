//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

// State is a step of the transfer state machine.
type State int32

const (
	// StateRequesting sends the request and opens the destination.
	StateRequesting State = iota
	// StateStreaming copies the response body to the destination, one buffer at a time.
	StateStreaming
	// StateClosing closes the response body and the destination.
	StateClosing
	// StateDone is terminal: resources are released and the completion callback has run.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Outcome is how a transfer terminated.
type Outcome int

const (
	// Succeeded means the whole body was written to the destination.
	Succeeded Outcome = iota
	// Failed means the request, the destination or the stream failed.
	Failed
	// Cancelled means the CancelToken stopped the transfer.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result is passed to the completion callback.
type Result struct {
	Outcome Outcome
	// Err is nil on success, wraps ErrCancelled on cancellation and one of
	// the other sentinel errors on failure.
	Err error
	// CloseErr reports a failure closing the stream or the destination.
	// It does not change the Outcome.
	CloseErr error
	// Path is the resolved destination.
	Path string
	// Downloaded is the number of bytes written to Path.
	Downloaded uint64
	// Total is the size announced by the server, 0 if unknown.
	Total uint64
}

// ProgressFunc receives the number of bytes written so far and the
// announced total, 0 when the server did not send one.
type ProgressFunc func(downloaded, total uint64)

// CompleteFunc receives the Result of a transfer, exactly once.
type CompleteFunc func(Result)
