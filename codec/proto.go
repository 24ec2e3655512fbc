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

package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/gobus/errors"
)

// Proto encodes protocol buffers messages of type T.
type Proto[T proto.Message] struct {
	marshaler proto.MarshalOptions
}

// enforce compilation error
var _ Codec = (*Proto[proto.Message])(nil)

// NewProto creates a protocol buffers codec for T, e.g. NewProto[*durationpb.Duration]()
func NewProto[T proto.Message]() *Proto[T] {
	return &Proto[T]{marshaler: proto.MarshalOptions{Deterministic: true}}
}

// Encode implements Codec. A nil value encodes to a null payload.
func (c *Proto[T]) Encode(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("expected=(%T) got=(%T) %w", zero, value, gerrors.ErrCodecTypeMismatch)
	}

	bytea, err := c.marshaler.Marshal(typed)
	if err != nil {
		return nil, errors.Join(errors.New("failed to proto encode value"), err)
	}

	// an empty message marshals to nil, which would read back as null
	if bytea == nil {
		bytea = []byte{}
	}
	return bytea, nil
}

// Decode implements Codec. A null payload decodes to nil.
func (c *Proto[T]) Decode(data []byte) (any, error) {
	if data == nil {
		return nil, nil
	}

	var zero T
	msg := zero.ProtoReflect().New().Interface()
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, errors.Join(errors.New("failed to proto decode value"), err)
	}
	return msg.(T), nil
}
