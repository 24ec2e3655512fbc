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

package message

import (
	"fmt"

	"github.com/tochemey/gobus/codec"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/internal/wire"
)

// Serializer turns values into messages and messages into frames, and back.
// It is stateless apart from the shared codec registry and safe for
// concurrent use.
type Serializer struct {
	registry *codec.Registry
}

// NewSerializer creates a Serializer bound to registry.
// A nil registry is replaced by an empty one.
func NewSerializer(registry *codec.Registry) *Serializer {
	if registry == nil {
		registry = codec.NewRegistry()
	}
	return &Serializer{registry: registry}
}

// Registry returns the codec registry of the serializer
func (s *Serializer) Registry() *codec.Registry {
	return s.registry
}

// Encode builds a message whose body is picked by BodyOf.
// An empty replyAddress means no reply is expected.
func (s *Serializer) Encode(address string, isSend bool, replyAddress string, value any) (*Message, error) {
	if address == "" {
		return nil, gerrors.NewErrInvalidAddress(address)
	}

	body, err := BodyOf(value, s.registry)
	if err != nil {
		return nil, err
	}
	return s.New(address, isSend, replyAddress, body)
}

// New builds a message from an explicit body. A nil body is an empty String.
// A custom body built with NewCustom must name a registered codec.
func (s *Serializer) New(address string, isSend bool, replyAddress string, body Body) (*Message, error) {
	if address == "" {
		return nil, gerrors.NewErrInvalidAddress(address)
	}

	if body == nil {
		body = String("")
	}

	if custom, ok := body.(*Custom); ok && custom.local {
		if _, ok := s.registry.Lookup(custom.name); !ok {
			return nil, gerrors.NewErrUnregisteredCustom(custom.name)
		}
	}

	return &Message{
		send:         isSend,
		address:      address,
		replyAddress: replyAddress,
		body:         body,
		registry:     s.registry,
	}, nil
}

// Marshal returns the binary frame of msg
func (s *Serializer) Marshal(msg *Message) ([]byte, error) {
	return msg.Marshal()
}

// Decode parses a frame produced by Marshal.
//
// A custom body is kept encoded: its codec is only needed when the message
// is resolved. Truncated frames, unknown type tags and trailing bytes fail
// with ErrInvalidFrame.
func (s *Serializer) Decode(frame []byte) (*Message, error) {
	r := wire.NewReader(frame)

	kind := Type(r.Uint8("type"))
	if r.Err() != nil {
		return nil, gerrors.NewErrInvalidFrame(r.Err().Error())
	}

	if !kind.valid() {
		return nil, gerrors.NewErrInvalidFrame(fmt.Sprintf("unknown type tag %d", kind))
	}

	send := r.Bool("send flag")
	address := r.String("address")

	var replyAddress string
	if r.Bool("reply flag") {
		replyAddress = r.String("reply address")
	}

	var name string
	if kind == TypeCustomObject {
		name = r.String("type name")
	}

	if r.Err() != nil {
		return nil, gerrors.NewErrInvalidFrame(r.Err().Error())
	}

	if address == "" {
		return nil, gerrors.NewErrInvalidFrame("empty address")
	}

	body, err := decodeBody(kind, name, r)
	if r.Err() != nil {
		return nil, gerrors.NewErrInvalidFrame(r.Err().Error())
	}

	if err != nil {
		return nil, gerrors.NewErrInvalidFrame(err.Error())
	}

	if r.Remaining() != 0 {
		return nil, gerrors.NewErrInvalidFrame(fmt.Sprintf("%d trailing bytes", r.Remaining()))
	}

	return &Message{
		send:         send,
		address:      address,
		replyAddress: replyAddress,
		body:         body,
		registry:     s.registry,
	}, nil
}

// Resolve returns the Go value of the body of msg using the serializer registry
func (s *Serializer) Resolve(msg *Message) (any, error) {
	return msg.Resolve(s.registry)
}
