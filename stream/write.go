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
	"io"
	"time"

	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/eventloop"
	"github.com/tochemey/gobus/internal/collection"
	"github.com/tochemey/gobus/log"
	"github.com/tochemey/gobus/message"
)

// WriteStream sends written bytes as Buffer messages to an address.
//
// A write larger than the max frame size is split into consecutive frames;
// no byte is dropped. Every write reserves its full length in BytesPending
// once, and each frame releases its own length when it is sent
// (fire-and-forget) or acknowledged (when a timeout is set). A failed or
// timed out frame is reported to the exception handler and keeps its bytes
// reserved.
//
// WriteQueueFull reports whether BytesPending reached the high-water mark.
// The drain handler fires once after a write, the first time BytesPending
// is found below the mark.
//
// A WriteStream is not safe for concurrent use. Acknowledgements run on the
// executor of the stream, so acknowledged mode needs an executor other than
// eventloop.Inline, typically the eventloop.Loop the stream is used from.
type WriteStream struct {
	bus      Bus
	address  string
	executor eventloop.Executor
	logger   log.Logger

	maxFrameSize      int
	writeQueueMaxSize int64
	timeout           time.Duration

	drainHandler     func()
	exceptionHandler func(err error)

	pending      *collection.FIFO[message.Buffer]
	bytesPending int64
	drainArmed   bool
	closed       bool
}

// enforce compilation error
var _ io.Writer = (*WriteStream)(nil)

// NewWriteStream creates a WriteStream sending to address
func NewWriteStream(b Bus, address string, opts ...Option) (*WriteStream, error) {
	if address == "" {
		return nil, gerrors.NewErrInvalidAddress(address)
	}

	config := newSettings(opts)
	if err := checkAcknowledged(config.timeout, config.executor); err != nil {
		return nil, err
	}

	return &WriteStream{
		bus:               b,
		address:           address,
		executor:          config.executor,
		logger:            config.logger,
		maxFrameSize:      config.maxFrameSize,
		writeQueueMaxSize: config.writeQueueMaxSize,
		timeout:           config.timeout,
		pending:           collection.NewFIFO[message.Buffer](),
	}, nil
}

// Address returns the destination address
func (s *WriteStream) Address() string {
	return s.address
}

// Write sends p, split into frames of at most the max frame size.
// It never blocks: check WriteQueueFull and wait for the drain handler to
// apply backpressure. It fails only once the stream is closed.
func (s *WriteStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, gerrors.ErrStreamClosed
	}

	if len(p) > s.maxFrameSize {
		s.split(p)
	} else {
		s.pending.Push(message.Buffer(p))
	}

	s.bytesPending += int64(len(p))
	s.drainArmed = true
	s.flush()
	return len(p), nil
}

// End sends the zero-length buffer marking the end of the stream
func (s *WriteStream) End() error {
	_, err := s.Write(nil)
	return err
}

// WriteQueueFull reports whether the bytes in flight reached the high-water mark
func (s *WriteStream) WriteQueueFull() bool {
	return s.bytesPending >= s.writeQueueMaxSize
}

// BytesPending returns the number of bytes written and not yet released
func (s *WriteStream) BytesPending() int64 {
	return s.bytesPending
}

// SetWriteQueueMaxSize changes the high-water mark
func (s *WriteStream) SetWriteQueueMaxSize(size int64) *WriteStream {
	s.writeQueueMaxSize = size
	return s
}

// SetMaxFrameSize changes the frame size of later writes
func (s *WriteStream) SetMaxFrameSize(size int) *WriteStream {
	if size > 0 {
		s.maxFrameSize = size
	}
	return s
}

// SetTimeout changes the delivery mode of later frames.
// A positive timeout waits for acknowledgements; zero disables them.
// It fails with ErrExecutorRequired on the inline executor.
func (s *WriteStream) SetTimeout(timeout time.Duration) error {
	if err := checkAcknowledged(timeout, s.executor); err != nil {
		return err
	}
	s.timeout = timeout
	return nil
}

// DrainHandler sets the handler called when the stream can take more writes
func (s *WriteStream) DrainHandler(handler func()) *WriteStream {
	s.drainHandler = handler
	return s
}

// ExceptionHandler sets the handler of send failures.
// Without one, failures are logged.
func (s *WriteStream) ExceptionHandler(handler func(err error)) *WriteStream {
	s.exceptionHandler = handler
	return s
}

// Close stops the stream. Frames still in flight may complete; their
// outcome is ignored.
func (s *WriteStream) Close() error {
	s.closed = true
	s.pending.Reset()
	return nil
}

// split enqueues p as consecutive frames, the last one possibly shorter
func (s *WriteStream) split(p []byte) {
	for pos := 0; pos < len(p); pos += s.maxFrameSize {
		end := min(pos+s.maxFrameSize, len(p))
		s.pending.Push(message.Buffer(p[pos:end]))
	}
}

func (s *WriteStream) flush() {
	acknowledged := s.timeout > 0
	for !s.closed {
		frame, ok := s.pending.Pop()
		if !ok {
			break
		}
		if acknowledged {
			s.sendWithAck(frame)
			continue
		}
		s.send(frame)
	}

	if !acknowledged {
		s.checkDrained()
	}
}

func (s *WriteStream) send(frame message.Buffer) {
	// the frame counts as gone even when the bus refuses it
	if err := s.bus.Send(s.address, frame); err != nil {
		s.fail(fmt.Errorf("failed to send %d bytes to address=(%s): %w", len(frame), s.address, err))
	}
	s.bytesPending -= int64(len(frame))
}

func (s *WriteStream) sendWithAck(frame message.Buffer) {
	size := int64(len(frame))
	err := s.bus.SendWithAck(s.address, frame, s.timeout, func(_ *message.Message, err error) {
		s.executor.Execute(func() { s.onAck(size, err) })
	})
	if err != nil {
		s.fail(fmt.Errorf("failed to send %d bytes to address=(%s): %w", size, s.address, err))
	}
}

func (s *WriteStream) onAck(size int64, err error) {
	if s.closed {
		return
	}

	if err != nil {
		s.fail(err)
		return
	}

	s.bytesPending -= size
	s.checkDrained()
}

func (s *WriteStream) checkDrained() {
	if !s.drainArmed || s.bytesPending >= s.writeQueueMaxSize {
		return
	}

	s.drainArmed = false
	if s.drainHandler != nil {
		s.drainHandler()
	}
}

func (s *WriteStream) fail(err error) {
	if s.exceptionHandler != nil {
		s.exceptionHandler(err)
		return
	}
	s.logger.Error(err)
}

// checkAcknowledged refuses acknowledged mode on the inline executor, where
// acknowledgements would run on the bus timer goroutine
func checkAcknowledged(timeout time.Duration, executor eventloop.Executor) error {
	if timeout > 0 && executor == eventloop.Inline {
		return gerrors.ErrExecutorRequired
	}
	return nil
}
