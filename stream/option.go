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

package stream

import (
	"time"

	"github.com/tochemey/gobus/eventloop"
	"github.com/tochemey/gobus/log"
)

const (
	// DefaultMaxFrameSize bounds the size of one outgoing buffer
	DefaultMaxFrameSize = 8 * 1024
	// DefaultWriteQueueMaxSize is the default high-water mark in bytes
	DefaultWriteQueueMaxSize = 32 * 1024
)

type settings struct {
	executor          eventloop.Executor
	logger            log.Logger
	maxFrameSize      int
	writeQueueMaxSize int64
	timeout           time.Duration
}

func newSettings(opts []Option) *settings {
	config := &settings{
		executor:          eventloop.Inline,
		logger:            log.DefaultLogger,
		maxFrameSize:      DefaultMaxFrameSize,
		writeQueueMaxSize: DefaultWriteQueueMaxSize,
	}
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Option configures a stream
type Option interface {
	// Apply sets the Option value of a stream
	Apply(config *settings)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *settings)

// Apply applies the stream's option
func (f OptionFunc) Apply(config *settings) {
	f(config)
}

// WithExecutor sets where deliveries and acknowledgements run.
// The default runs them on the goroutine of the bus callback.
func WithExecutor(executor eventloop.Executor) Option {
	return OptionFunc(func(config *settings) {
		if executor != nil {
			config.executor = executor
		}
	})
}

// WithLogger sets the logger receiving errors that have no exception handler
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *settings) {
		config.logger = logger
	})
}

// WithMaxFrameSize sets the largest buffer sent in one message
func WithMaxFrameSize(size int) Option {
	return OptionFunc(func(config *settings) {
		if size > 0 {
			config.maxFrameSize = size
		}
	})
}

// WithWriteQueueMaxSize sets the high-water mark in bytes
func WithWriteQueueMaxSize(size int64) Option {
	return OptionFunc(func(config *settings) {
		config.writeQueueMaxSize = size
	})
}

// WithTimeout enables acknowledged delivery: every buffer waits up to
// timeout for the reader's acknowledgement. Zero disables it.
// A positive timeout requires WithExecutor.
func WithTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *settings) {
		config.timeout = timeout
	})
}
