//
// Copyright 2018 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Transfer downloads one URI into one file.
type Transfer struct {
	// ID identifies the transfer in log messages.
	ID string
	// URI is the resource being downloaded.
	URI string
	// Path is the resolved destination.
	Path string

	// OnProgress, if set, is called at most once per Config.ProgressInterval
	// while streaming and once more when the stream is closed.
	OnProgress ProgressFunc
	// OnComplete, if set, is called exactly once, after every other callback.
	OnComplete CompleteFunc

	overwrite bool
	config    Config
	token     *CancelToken
	log       *slog.Logger

	state      atomic.Int32
	started    atomic.Bool
	downloaded atomic.Uint64
	size       atomic.Int64 // -1 if unknown

	ctx          context.Context
	watchdog     *watchdog
	body         io.ReadCloser
	out          Sink
	buf          []byte
	lastProgress time.Time

	outcome  Outcome
	err      error
	closeErr error
	result   Result
	done     chan struct{}
}

// New resolves the destination of uri (see ResolveDestination) and returns a
// Transfer ready to be run. No network activity happens before Run or Start.
// If token is nil the transfer gets a private one, reachable through Cancel.
func New(uri, path string, overwrite bool, token *CancelToken, config Config) (*Transfer, error) {
	config = config.withDefaults()
	log := config.Logger.With("url", redactURL(uri))

	dest, err := ResolveDestination(config.Filesystem, uri, path, overwrite, config.DownloadsDir)
	if errors.Is(err, ErrDestinationExists) {
		log.Debug("destination exists and overwrite is disabled, transfer not started", "path", dest)
		return nil, err
	}
	if err != nil {
		log.Warn("resolving destination", "error", err)
		return nil, err
	}

	if token == nil {
		token = NewCancelToken()
	}
	t := &Transfer{
		ID:        uuid.NewString(),
		URI:       uri,
		Path:      dest,
		overwrite: overwrite,
		config:    config,
		token:     token,
		done:      make(chan struct{}),
	}
	t.log = log.With("transfer_id", t.ID)
	t.size.Store(-1)
	t.log.Debug("saving to", "path", dest)
	return t, nil
}

// Start runs the transfer asynchronously: on exec if not nil, otherwise on a
// new goroutine. Calls after the first are ignored.
//
// With an Executor the request and every body read wait on their own
// goroutine; exec only runs the non-blocking part of each step, so a
// stalled server never holds exec. Submit may run the task inline.
func (t *Transfer) Start(exec Executor) {
	if !t.started.CompareAndSwap(false, true) {
		return
	}
	if exec == nil {
		go t.drive()
		return
	}
	var step func()
	resume := func(complete func()) {
		exec.Submit(func() {
			complete()
			if t.settle() {
				exec.Submit(step)
			}
		})
	}
	step = func() {
		switch {
		case t.token.Cancelled():
			// handled by advance
		case t.State() == StateRequesting:
			req := t.newRequest()
			if req == nil {
				break
			}
			go func() {
				resp, err := t.send(req)
				resume(func() { t.receive(resp, err) })
			}()
			return
		case t.State() == StateStreaming:
			go func() {
				n, err := t.read()
				resume(func() { t.consume(n, err) })
			}()
			return
		}
		if t.advance() {
			exec.Submit(step)
		}
	}
	exec.Submit(step)
}

// Run performs the transfer on the calling goroutine and returns its Result.
// If the transfer was already started Run waits for it to complete.
func (t *Transfer) Run() Result {
	if t.started.CompareAndSwap(false, true) {
		t.drive()
	}
	return t.Wait()
}

// Wait blocks until the transfer is done and returns its Result.
func (t *Transfer) Wait() Result {
	<-t.done
	return t.result
}

// Done returns a channel closed after the completion callback has returned.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Cancel cancels the token of the transfer.
func (t *Transfer) Cancel() {
	t.token.Cancel()
}

// State returns the current state of the transfer.
func (t *Transfer) State() State {
	return State(t.state.Load())
}

// Downloaded returns the bytes written to the destination so far.
func (t *Transfer) Downloaded() uint64 {
	return t.downloaded.Load()
}

// Total returns the size announced by the server, and false if unknown.
func (t *Transfer) Total() (uint64, bool) {
	size := t.size.Load()
	if size < 0 {
		return 0, false
	}
	return uint64(size), true
}

func (t *Transfer) drive() {
	for t.advance() {
	}
}

// advance performs one step of the state machine and reports whether more
// steps are needed.
func (t *Transfer) advance() bool {
	switch t.State() {
	case StateRequesting:
		t.request()
	case StateStreaming:
		t.stream()
	case StateClosing:
		t.close()
	}
	return t.settle()
}

// settle finishes the transfer once it reached StateDone and reports
// whether more steps are needed.
func (t *Transfer) settle() bool {
	if t.State() != StateDone {
		return true
	}
	t.finish()
	return false
}

func (t *Transfer) setState(s State) {
	t.state.Store(int32(s))
}

// terminate jumps straight to StateDone: used before the stream is established.
func (t *Transfer) terminate(outcome Outcome, err error) {
	t.outcome, t.err = outcome, err
	t.setState(StateDone)
}

// endStream moves to StateClosing recording how the transfer ended.
func (t *Transfer) endStream(outcome Outcome, err error) {
	t.outcome, t.err = outcome, err
	t.setState(StateClosing)
}

func (t *Transfer) request() {
	if t.token.Cancelled() {
		t.terminate(Cancelled, ErrCancelled)
		return
	}
	if req := t.newRequest(); req != nil {
		t.receive(t.send(req))
	}
}

// newRequest arms the watchdog and builds the GET request. On failure the
// transfer is terminated and nil is returned.
func (t *Transfer) newRequest() *http.Request {
	t.ctx, t.watchdog = newWatchdog(t.token.Context(), t.config.InactivityTimeout)
	req, err := http.NewRequestWithContext(t.ctx, http.MethodGet, t.URI, nil)
	if err != nil {
		t.terminate(Failed, fmt.Errorf("%w: setting up request: %w", ErrRequestFailed, err))
		return nil
	}
	req.Header.Set("User-Agent", t.config.UserAgent)
	for k, v := range t.config.ExtraHeaders {
		req.Header.Set(k, v)
	}
	return req
}

// send blocks until the response headers arrive.
func (t *Transfer) send(req *http.Request) (*http.Response, error) {
	t.log.Debug("sending request")
	resp, err := t.config.HttpClient.Do(req)
	t.watchdog.Pause()
	return resp, err
}

// receive validates the response and opens the destination.
func (t *Transfer) receive(resp *http.Response, err error) {
	if err != nil {
		if t.token.Cancelled() {
			t.terminate(Cancelled, ErrCancelled)
		} else {
			t.terminate(Failed, fmt.Errorf("%w: %w", ErrRequestFailed, err))
		}
		return
	}
	t.body = resp.Body

	if !t.config.DoNotErrorOnNon2xxStatusCode && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		t.terminate(Failed, fmt.Errorf("%w: server returned %s", ErrRequestFailed, resp.Status))
		return
	}
	if t.config.AcceptFunc != nil {
		if err := t.config.AcceptFunc(resp); err != nil {
			t.terminate(Failed, fmt.Errorf("%w: %w", ErrRequestFailed, err))
			return
		}
	}
	if resp.ContentLength >= 0 {
		t.size.Store(resp.ContentLength)
	}

	if t.token.Cancelled() {
		t.terminate(Cancelled, ErrCancelled)
		return
	}

	out, err := t.config.Filesystem.Create(t.Path, t.overwrite)
	if err != nil {
		t.terminate(Failed, fmt.Errorf("%w: %s: %w", ErrFileOpenFailed, t.Path, err))
		return
	}
	t.out = out
	t.buf = make([]byte, t.config.BufferSize)
	t.lastProgress = time.Now()
	t.setState(StateStreaming)
}

func (t *Transfer) stream() {
	if t.token.Cancelled() {
		t.endStream(Cancelled, ErrCancelled)
		return
	}
	t.consume(t.read())
}

// read fills the buffer from the body. The inactivity timer runs only while
// the read is waiting on the network.
func (t *Transfer) read() (int, error) {
	t.watchdog.Kick()
	n, err := t.body.Read(t.buf)
	t.watchdog.Pause()
	return n, err
}

// consume writes the outcome of a read and decides the next state.
func (t *Transfer) consume(n int, err error) {
	if n > 0 {
		if err := t.write(t.buf[:n]); err != nil {
			t.endStream(Failed, err)
			return
		}
		if time.Since(t.lastProgress) > t.config.ProgressInterval {
			t.emitProgress()
			t.lastProgress = time.Now()
		}
	}

	switch {
	case err == nil && n > 0:
		// keep streaming
	case err == nil || errors.Is(err, io.EOF):
		if total, ok := t.Total(); ok && t.Downloaded() < total {
			t.endStream(Failed, fmt.Errorf("%w: stream ended after %d of %d bytes", ErrStreamReadFailed, t.Downloaded(), total))
			return
		}
		t.endStream(Succeeded, nil)
	case t.token.Cancelled():
		t.endStream(Cancelled, ErrCancelled)
	default:
		if cause := context.Cause(t.ctx); errors.Is(cause, os.ErrDeadlineExceeded) {
			err = fmt.Errorf("no data received for %s: %w", t.config.InactivityTimeout, cause)
		}
		t.endStream(Failed, fmt.Errorf("%w: %w", ErrStreamReadFailed, err))
	}
}

// write stores p in the destination; only the bytes actually written are
// accounted in the downloaded counter.
func (t *Transfer) write(p []byte) error {
	if total, ok := t.Total(); ok && t.Downloaded()+uint64(len(p)) > total {
		return fmt.Errorf("%w: server sent more than the announced %d bytes", ErrStreamReadFailed, total)
	}
	n, err := t.out.Write(p)
	if n > len(p) {
		n = len(p)
	}
	if n > 0 {
		t.downloaded.Add(uint64(n))
	}
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStreamWriteFailed, err)
	}
	return nil
}

func (t *Transfer) emitProgress() {
	if t.OnProgress == nil {
		return
	}
	total, _ := t.Total()
	t.OnProgress(t.Downloaded(), total)
}

func (t *Transfer) close() {
	if err := t.body.Close(); err != nil {
		t.log.Warn("closing stream", "error", err)
		t.closeErr = fmt.Errorf("%w: %w", ErrStreamCloseFailed, err)
	}
	t.body = nil
	t.log.Debug("stream closed", bytesAttr("downloaded", t.Downloaded()))

	t.emitProgress()

	syncErr := t.out.Sync()
	closeErr := t.out.Close()
	t.out = nil
	if err := errors.Join(syncErr, closeErr); err != nil {
		t.log.Warn("closing destination", "path", t.Path, "error", err)
		t.closeErr = errors.Join(t.closeErr, fmt.Errorf("%w: %s: %w", ErrStreamCloseFailed, t.Path, err))
	}
	t.setState(StateDone)
}

// finish releases whatever the transfer still holds, then publishes the
// Result. It runs once, on the transition to StateDone.
func (t *Transfer) finish() {
	if t.body != nil {
		_ = t.body.Close()
		t.body = nil
	}
	if t.out != nil {
		_ = t.out.Close()
		t.out = nil
	}
	if t.watchdog != nil {
		t.watchdog.Stop()
	}
	t.buf = nil

	total, _ := t.Total()
	t.result = Result{
		Outcome:    t.outcome,
		Err:        t.err,
		CloseErr:   t.closeErr,
		Path:       t.Path,
		Downloaded: t.Downloaded(),
		Total:      total,
	}
	switch t.outcome {
	case Succeeded:
		t.log.Info("transfer complete", "path", t.Path, bytesAttr("downloaded", t.result.Downloaded))
	case Cancelled:
		t.log.Info("transfer cancelled", "path", t.Path, bytesAttr("downloaded", t.result.Downloaded))
	default:
		t.log.Warn("transfer failed", "path", t.Path, bytesAttr("downloaded", t.result.Downloaded), "error", t.err)
	}

	if t.OnComplete != nil {
		t.OnComplete(t.result)
	}
	close(t.done)
}

// Start downloads uri into path asynchronously using the default
// configuration. The returned error is set only when the transfer could not
// be started (invalid URI, destination already present and overwrite
// disabled, directory creation failure): in that case no callback is called.
func Start(uri, path string, overwrite bool, token *CancelToken, onProgress ProgressFunc, onComplete CompleteFunc) (*Transfer, error) {
	return StartWithConfig(uri, path, overwrite, token, onProgress, onComplete, GetDefaultConfig())
}

// StartWithCallback is Start without a progress callback.
func StartWithCallback(uri, path string, overwrite bool, token *CancelToken, onComplete CompleteFunc) (*Transfer, error) {
	return Start(uri, path, overwrite, token, nil, onComplete)
}

// StartSimple is Start without callbacks.
func StartSimple(uri, path string, overwrite bool, token *CancelToken) (*Transfer, error) {
	return Start(uri, path, overwrite, token, nil, nil)
}

// StartWithConfig is Start with an explicit configuration. The transfer
// runs on config.Executor, or on its own goroutine if that is nil.
func StartWithConfig(uri, path string, overwrite bool, token *CancelToken, onProgress ProgressFunc, onComplete CompleteFunc, config Config) (*Transfer, error) {
	t, err := New(uri, path, overwrite, token, config)
	if err != nil {
		return nil, err
	}
	t.OnProgress = onProgress
	t.OnComplete = onComplete
	t.Start(t.config.Executor)
	return t, nil
}
