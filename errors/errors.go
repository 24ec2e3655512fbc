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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPayloadType is returned when a value matches none of the
	// built-in body types and no codec is registered for its runtime type.
	ErrUnsupportedPayloadType = errors.New("unsupported payload type")

	// ErrCodecNotFound is returned when a custom body cannot be materialized
	// because its type name is not in the codec registry.
	ErrCodecNotFound = errors.New("codec not found")

	// ErrUncopyable is returned when a custom body must be delivered to more
	// than one local handler but is neither shareable nor deep-copyable.
	ErrUncopyable = errors.New("message body is neither shareable nor copyable")

	// ErrInvalidStreamMessage is reported by a read stream when a message
	// that is not a buffer, or a null message, arrives on its address.
	ErrInvalidStreamMessage = errors.New("invalid stream message")

	// ErrSendTimeout is reported when an acknowledged send does not receive
	// a reply within its timeout.
	ErrSendTimeout = errors.New("send timed out")

	// ErrSendFailed is reported when an acknowledged send is answered with a failure.
	ErrSendFailed = errors.New("send failed")

	// ErrNoHandlers is returned when nobody is subscribed to the destination address.
	ErrNoHandlers = errors.New("no handlers for address")

	// ErrInvalidFrame is returned when a frame is truncated, carries an unknown
	// type tag or has trailing bytes.
	ErrInvalidFrame = errors.New("malformed or truncated frame")

	// ErrInvalidAddress is returned when an address is empty or malformed.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidCodec is returned when registering a codec with an empty name or a nil codec.
	ErrInvalidCodec = errors.New("invalid codec")

	// ErrCodecTypeMismatch is returned when a codec is asked to encode a value
	// of a type it does not handle.
	ErrCodecTypeMismatch = errors.New("codec type mismatch")

	// ErrBusNotStarted is returned when the event bus is used before Start.
	ErrBusNotStarted = errors.New("event bus is not started")

	// ErrBusClosed is returned when the event bus is used after Stop.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrStreamClosed is returned when writing to a closed write stream.
	ErrStreamClosed = errors.New("stream is closed")

	// ErrTransportNotConnected is returned when a transport is used before Connect or after Close.
	ErrTransportNotConnected = errors.New("transport is not connected")

	// ErrInvalidHandler is returned when subscribing or sending with a nil handler.
	ErrInvalidHandler = errors.New("handler is required")

	// ErrExecutorRequired is returned when a write stream is switched to
	// acknowledged mode while it runs on the inline executor.
	ErrExecutorRequired = errors.New("acknowledged writes require an event loop executor")
)

// NewErrUnsupportedPayloadType formats an error with ErrUnsupportedPayloadType
func NewErrUnsupportedPayloadType(value any) error {
	return fmt.Errorf("type=(%T) %w", value, ErrUnsupportedPayloadType)
}

// NewErrUnregisteredCustom formats an error with ErrUnsupportedPayloadType
// for a custom body whose type name has no codec
func NewErrUnregisteredCustom(name string) error {
	return fmt.Errorf("type=(%s) %w", name, ErrUnsupportedPayloadType)
}

// NewErrCodecNotFound formats an error with ErrCodecNotFound
func NewErrCodecNotFound(name string) error {
	return fmt.Errorf("type=(%s) %w", name, ErrCodecNotFound)
}

// NewErrUncopyable formats an error with ErrUncopyable naming the offending type
func NewErrUncopyable(typeName string) error {
	return fmt.Errorf("type=(%s) %w", typeName, ErrUncopyable)
}

// NewErrInvalidFrame wraps the decoding failure reason with ErrInvalidFrame
func NewErrInvalidFrame(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFrame, reason)
}

// NewErrInvalidAddress formats an error with ErrInvalidAddress
func NewErrInvalidAddress(address string) error {
	return fmt.Errorf("address=(%s) %w", address, ErrInvalidAddress)
}

// NewErrNullStreamMessage reports a null body received by a read stream
func NewErrNullStreamMessage(address string) error {
	return fmt.Errorf("%w: null message sent to address=(%s), send an empty buffer to end the stream", ErrInvalidStreamMessage, address)
}

// NewErrInvalidStreamBody reports a non buffer body received by a read stream
func NewErrInvalidStreamBody(address, bodyType string) error {
	return fmt.Errorf("%w: type=(%s) sent to address=(%s), only buffers can be streamed", ErrInvalidStreamMessage, bodyType, address)
}

// NewErrSendFailed wraps a cause with ErrSendFailed
func NewErrSendFailed(cause error) error {
	return errors.Join(ErrSendFailed, cause)
}
