//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"context"
	"sync"
)

// Executor schedules the steps of a transfer. A transfer submits its next
// step only after the previous one has returned, so an Executor may run
// tasks on any goroutine without further synchronization.
type Executor interface {
	Submit(task func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func())

// Submit calls f(task).
func (f ExecutorFunc) Submit(task func()) {
	f(task)
}

// Loop is a cooperative executor that runs every submitted task, in
// submission order, on the goroutine calling Run. Transfers sharing a Loop
// interleave one step at a time.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop creates an idle Loop; call Run to start processing tasks.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Submit enqueues a task. It never blocks and may be called from inside a task.
func (l *Loop) Submit(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run processes tasks until ctx is done. Tasks still queued at that point
// are kept and will run on the next call to Run.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if task := l.next(); task != nil {
			task()
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task
}
