//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import "context"

// CancelToken is a cancellation flag shared between a Transfer and its
// caller. Cancel may be called any number of times from any goroutine.
type CancelToken struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancelToken returns a token that is not cancelled.
func NewCancelToken() *CancelToken {
	return NewCancelTokenFromContext(context.Background())
}

// NewCancelTokenFromContext returns a token that is cancelled when Cancel is
// called or when ctx is done, whichever happens first.
func NewCancelTokenFromContext(ctx context.Context) *CancelToken {
	ctx, cancel := context.WithCancel(ctx)
	return &CancelToken{ctx: ctx, cancel: cancel}
}

// Cancel requests the cancellation of every transfer using this token.
func (c *CancelToken) Cancel() {
	c.cancel()
}

// Cancelled reports whether Cancel has been called (or the parent context is done).
func (c *CancelToken) Cancelled() bool {
	return c.ctx.Err() != nil
}

// Done returns a channel closed on cancellation.
func (c *CancelToken) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Context returns a context that is done when the token is cancelled.
func (c *CancelToken) Context() context.Context {
	return c.ctx
}
