// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package eventloop

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/gobus/internal/queue"
	"github.com/tochemey/gobus/log"
)

// Loop is a single goroutine draining a task queue in FIFO order.
//
// Tasks may be submitted before Start; they run once the loop starts.
// Tasks submitted after Stop are dropped.
type Loop struct {
	name   string
	logger log.Logger

	tasks  *queue.Mpsc[func()]
	signal chan struct{}
	stopCh chan struct{}
	done   chan struct{}

	// guards the stopped transition against in-flight submissions
	mu      sync.RWMutex
	started *atomic.Bool
	stopped *atomic.Bool
}

// enforce compilation error
var _ Executor = (*Loop)(nil)

// NewLoop creates a Loop
func NewLoop(opts ...Option) *Loop {
	loop := &Loop{
		name:    "eventloop",
		logger:  log.DefaultLogger,
		tasks:   queue.NewMpsc[func()](),
		signal:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		started: atomic.NewBool(false),
		stopped: atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(loop)
	}
	return loop
}

// Name returns the loop name
func (l *Loop) Name() string {
	return l.name
}

// Start launches the loop goroutine. Calling Start more than once has no effect.
func (l *Loop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
}

// Execute implements Executor
func (l *Loop) Execute(task func()) {
	l.mu.RLock()
	if l.stopped.Load() {
		l.mu.RUnlock()
		l.logger.Warnf("%s is stopped, task dropped", l.name)
		return
	}
	l.tasks.Push(task)
	l.mu.RUnlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks
func (l *Loop) Pending() int64 {
	return l.tasks.Len()
}

// Stop refuses new tasks, runs the queued ones and waits for the loop
// goroutine to exit or for ctx to be done.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped.Load() {
		l.mu.Unlock()
		return nil
	}
	l.stopped.Store(true)
	l.mu.Unlock()

	close(l.stopCh)
	if !l.started.Load() {
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s did not stop: %w", l.name, ctx.Err())
	}
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.drain()
		select {
		case <-l.signal:
		case <-l.stopCh:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		task, ok := l.tasks.Pop()
		if !ok {
			return
		}
		l.runTask(task)
	}
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorf("%s task panicked: %v", l.name, r)
		}
	}()
	task()
}
