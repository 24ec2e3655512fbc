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

// Package stream turns bus addresses into flow-controlled byte streams.
//
// A WriteStream chunks written bytes into Buffer messages sent to an
// address and tracks how many bytes are in flight against a high-water
// mark. A ReadStream subscribes to an address and hands the received
// buffers to a data handler; it can be paused, in which case buffers are
// queued in arrival order and replayed on resume. A zero-length buffer marks
// the end of the stream.
//
// Streams are not safe for concurrent use. Every call and every handler runs
// on the stream's executor: use eventloop.Inline when the bus delivers on the
// caller's goroutine, or an eventloop.Loop and drive the stream from its tasks.
// An acknowledged WriteStream needs the loop: reply timeouts fire on timer
// goroutines.
package stream

import (
	"time"

	"github.com/tochemey/gobus/bus"
	"github.com/tochemey/gobus/message"
)

// Bus is the part of the event bus a stream needs.
// *bus.EventBus satisfies it.
type Bus interface {
	Subscribe(address string, handler bus.Handler) (bus.Subscription, error)
	Send(address string, body any) error
	SendWithAck(address string, body any, timeout time.Duration, onReply bus.ReplyHandler) error
	Reply(msg *message.Message, body any) error
}

// enforce compilation error
var _ Bus = (*bus.EventBus)(nil)
