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
	"fmt"

	"github.com/tochemey/gobus/bus"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/eventloop"
	"github.com/tochemey/gobus/internal/collection"
	"github.com/tochemey/gobus/log"
	"github.com/tochemey/gobus/message"
)

// ReadStream exposes the buffers sent to an address as a pausable stream.
//
// While active, a non-empty buffer goes to the data handler and a
// zero-length buffer goes to the end handler only. While paused, buffers
// are queued without limit and replayed in arrival order by Resume.
//
// A buffer sent with a reply address is acknowledged when it is handed to
// the data or end handler, so a paused reader holds back an acknowledged
// writer.
type ReadStream struct {
	bus          Bus
	address      string
	executor     eventloop.Executor
	logger       log.Logger
	subscription bus.Subscription

	dataHandler      func(data []byte)
	endHandler       func()
	exceptionHandler func(err error)

	pending *collection.FIFO[*message.Message]
	paused  bool
	closed  bool
}

// NewReadStream subscribes to address
func NewReadStream(b Bus, address string, opts ...Option) (*ReadStream, error) {
	if address == "" {
		return nil, gerrors.NewErrInvalidAddress(address)
	}

	config := newSettings(opts)
	stream := &ReadStream{
		bus:      b,
		address:  address,
		executor: config.executor,
		logger:   config.logger,
		pending:  collection.NewFIFO[*message.Message](),
	}

	subscription, err := b.Subscribe(address, func(msg *message.Message) {
		stream.executor.Execute(func() { stream.onReceive(msg) })
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to address=(%s): %w", address, err)
	}

	stream.subscription = subscription
	return stream, nil
}

// Address returns the address the stream reads from
func (s *ReadStream) Address() string {
	return s.address
}

// DataHandler sets the handler of non-empty buffers
func (s *ReadStream) DataHandler(handler func(data []byte)) *ReadStream {
	s.dataHandler = handler
	return s
}

// EndHandler sets the handler called when a zero-length buffer arrives
func (s *ReadStream) EndHandler(handler func()) *ReadStream {
	s.endHandler = handler
	return s
}

// ExceptionHandler sets the handler of stream errors.
// Without one, errors are logged.
func (s *ReadStream) ExceptionHandler(handler func(err error)) *ReadStream {
	s.exceptionHandler = handler
	return s
}

// Pause queues incoming buffers instead of handing them out.
// The subscription stays active.
func (s *ReadStream) Pause() *ReadStream {
	s.paused = true
	return s
}

// Resume hands out the queued buffers in arrival order before returning.
// Draining stops early when a handler pauses the stream again.
func (s *ReadStream) Resume() *ReadStream {
	if !s.paused {
		return s
	}

	s.paused = false
	for !s.paused && !s.closed {
		msg, ok := s.pending.Pop()
		if !ok {
			break
		}
		s.dispatch(msg)
	}
	return s
}

// Paused reports whether the stream is paused
func (s *ReadStream) Paused() bool {
	return s.paused
}

// Pending returns the number of queued buffers
func (s *ReadStream) Pending() int {
	return s.pending.Len()
}

// Unregister releases the subscription. Queued buffers are dropped and
// later deliveries are ignored.
func (s *ReadStream) Unregister() error {
	if s.closed {
		return nil
	}

	s.closed = true
	s.pending.Reset()
	return s.subscription.Unsubscribe()
}

func (s *ReadStream) onReceive(msg *message.Message) {
	if s.closed {
		return
	}

	if err := s.validate(msg); err != nil {
		s.reject(msg, err)
		return
	}

	if s.paused {
		s.pending.Push(msg)
		return
	}
	s.dispatch(msg)
}

func (s *ReadStream) validate(msg *message.Message) error {
	switch body := msg.Body().(type) {
	case message.Buffer:
		return nil
	case *message.Custom:
		if body.IsNull() {
			return gerrors.NewErrNullStreamMessage(s.address)
		}
		return gerrors.NewErrInvalidStreamBody(s.address, body.Name())
	default:
		return gerrors.NewErrInvalidStreamBody(s.address, msg.Type().String())
	}
}

func (s *ReadStream) dispatch(msg *message.Message) {
	s.acknowledge(msg)

	data := msg.Body().(message.Buffer)
	if len(data) == 0 {
		if s.endHandler != nil {
			s.endHandler()
		}
		return
	}

	if s.dataHandler != nil {
		s.dataHandler(data)
		return
	}
	s.logger.Debugf("no data handler on address=(%s), %d bytes dropped", s.address, len(data))
}

func (s *ReadStream) acknowledge(msg *message.Message) {
	if _, ok := msg.ReplyAddress(); !ok {
		return
	}

	if err := s.bus.Reply(msg, message.Ping{}); err != nil {
		s.fail(fmt.Errorf("failed to acknowledge buffer on address=(%s): %w", s.address, err))
	}
}

// reject reports an invalid message and fails its sender when it waits for a reply
func (s *ReadStream) reject(msg *message.Message, err error) {
	if _, ok := msg.ReplyAddress(); ok {
		failure := message.ReplyFailure{Kind: message.FailureRecipient, Code: -1, Reason: err.Error()}
		if replyErr := s.bus.Reply(msg, failure); replyErr != nil {
			s.logger.Warnf("failed to reject message on address=(%s): %v", s.address, replyErr)
		}
	}
	s.fail(err)
}

func (s *ReadStream) fail(err error) {
	if s.exceptionHandler != nil {
		s.exceptionHandler(err)
		return
	}
	s.logger.Error(err)
}
