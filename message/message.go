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
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tochemey/gobus/codec"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/internal/wire"
)

// json renders structured bodies with sorted keys so equal values produce equal frames
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is one bus message.
//
// A Message is immutable once built. The encoded body is computed lazily
// and at most once, so measuring and then writing the frame runs a custom
// codec a single time.
type Message struct {
	send         bool
	address      string
	replyAddress string
	body         Body
	registry     *codec.Registry

	encodeOnce sync.Once
	encoded    []byte
	encodeErr  error
}

// IsSend reports whether the message is point-to-point rather than published
func (m *Message) IsSend() bool {
	return m.send
}

// Address returns the destination address
func (m *Message) Address() string {
	return m.address
}

// ReplyAddress returns the address replies go to, if the sender expects one
func (m *Message) ReplyAddress() (string, bool) {
	return m.replyAddress, m.replyAddress != ""
}

// Type returns the wire tag of the body
func (m *Message) Type() Type {
	return m.body.Type()
}

// TypeName returns the codec name of a custom body and an empty string otherwise
func (m *Message) TypeName() string {
	if custom, ok := m.body.(*Custom); ok {
		return custom.name
	}
	return ""
}

// Body returns the message body
func (m *Message) Body() Body {
	return m.body
}

// BodyLength returns the size in bytes of the encoded body
func (m *Message) BodyLength() (int, error) {
	encoded, err := m.encodedBody()
	if err != nil {
		return 0, err
	}
	return len(encoded), nil
}

// WriteBody writes the encoded body to w
func (m *Message) WriteBody(w io.Writer) (int, error) {
	encoded, err := m.encodedBody()
	if err != nil {
		return 0, err
	}
	return w.Write(encoded)
}

// Marshal returns the binary frame of the message
func (m *Message) Marshal() ([]byte, error) {
	encoded, err := m.encodedBody()
	if err != nil {
		return nil, err
	}

	size := 2 + wire.BlobSize(len(m.address)) + 1 + len(encoded)
	if m.replyAddress != "" {
		size += wire.BlobSize(len(m.replyAddress))
	}

	custom, isCustom := m.body.(*Custom)
	if isCustom {
		size += wire.BlobSize(len(custom.name))
	}

	w := wire.NewWriter(size)
	w.Uint8(uint8(m.body.Type()))
	w.Bool(m.send)
	w.String(m.address)
	if m.replyAddress != "" {
		w.Uint8(1)
		w.String(m.replyAddress)
	} else {
		w.Uint8(0)
	}

	if isCustom {
		w.String(custom.name)
	}

	w.Raw(encoded)
	return w.Bytes(), nil
}

// Copy returns a message whose body shares no mutable state with m.
//
// Custom bodies are shared when they implement codec.Shareable, copied with
// codec.Copier or proto.Clone, and otherwise fail with ErrUncopyable.
// A custom body read from a frame copies its encoded payload.
func (m *Message) Copy() (*Message, error) {
	body, err := copyBody(m.body)
	if err != nil {
		return nil, err
	}

	return &Message{
		send:         m.send,
		address:      m.address,
		replyAddress: m.replyAddress,
		body:         body,
		registry:     m.registry,
	}, nil
}

// CheckCopyable reports whether Copy would succeed, without copying
func (m *Message) CheckCopyable() error {
	if custom, ok := m.body.(*Custom); ok {
		return custom.copyable()
	}
	return nil
}

// Isolate returns the message a local handler receives in place of m.
//
// A local custom body that is not codec.Shareable is deep-copied when it
// can be. Otherwise the handler receives its encoded form, which it
// materializes with Resolve. Every other body is returned as is.
func (m *Message) Isolate() (*Message, error) {
	custom, ok := m.body.(*Custom)
	if !ok {
		return m, nil
	}

	body, err := custom.detach(m.registry)
	if err != nil {
		return nil, err
	}

	if body == custom {
		return m, nil
	}

	return &Message{
		send:         m.send,
		address:      m.address,
		replyAddress: m.replyAddress,
		body:         body,
		registry:     m.registry,
	}, nil
}

// Resolve returns the Go value of the body. A custom body read from a frame
// is decoded with the codec registered in registry under TypeName.
func (m *Message) Resolve(registry *codec.Registry) (any, error) {
	if custom, ok := m.body.(*Custom); ok {
		return custom.resolve(registry)
	}
	return valueOf(m.body), nil
}

func (m *Message) encodedBody() ([]byte, error) {
	m.encodeOnce.Do(func() {
		m.encoded, m.encodeErr = encodeBody(m.body, m.registry)
	})
	return m.encoded, m.encodeErr
}

func encodeBody(body Body, registry *codec.Registry) ([]byte, error) {
	switch b := body.(type) {
	case Ping:
		return []byte{}, nil
	case Buffer:
		w := wire.NewWriter(wire.BlobSize(len(b)))
		w.Blob(b)
		return w.Bytes(), nil
	case ByteArray:
		w := wire.NewWriter(wire.BlobSize(len(b)))
		w.Blob(b)
		return w.Bytes(), nil
	case String:
		w := wire.NewWriter(wire.BlobSize(len(b)))
		w.String(string(b))
		return w.Bytes(), nil
	case Bool:
		w := wire.NewWriter(1)
		w.Bool(bool(b))
		return w.Bytes(), nil
	case Byte:
		return []byte{uint8(b)}, nil
	case Char:
		w := wire.NewWriter(2)
		w.Uint16(uint16(b))
		return w.Bytes(), nil
	case Short:
		w := wire.NewWriter(2)
		w.Uint16(uint16(b))
		return w.Bytes(), nil
	case Int:
		w := wire.NewWriter(4)
		w.Uint32(uint32(b))
		return w.Bytes(), nil
	case Long:
		w := wire.NewWriter(8)
		w.Uint64(uint64(b))
		return w.Bytes(), nil
	case Float:
		w := wire.NewWriter(4)
		w.Float32(float32(b))
		return w.Bytes(), nil
	case Double:
		w := wire.NewWriter(8)
		w.Float64(float64(b))
		return w.Bytes(), nil
	case Object:
		text, err := json.Marshal(b.AsMap())
		if err != nil {
			return nil, fmt.Errorf("failed to encode structured object: %w", err)
		}
		w := wire.NewWriter(wire.BlobSize(len(text)))
		w.Blob(text)
		return w.Bytes(), nil
	case Array:
		text, err := json.Marshal(b.AsSlice())
		if err != nil {
			return nil, fmt.Errorf("failed to encode structured array: %w", err)
		}
		w := wire.NewWriter(wire.BlobSize(len(text)))
		w.Blob(text)
		return w.Bytes(), nil
	case *Custom:
		return encodeCustom(b, registry)
	case ReplyFailure:
		w := wire.NewWriter(1 + 4 + wire.BlobSize(len(b.Reason)))
		w.Uint8(uint8(b.Kind))
		w.Uint32(uint32(b.Code))
		w.String(b.Reason)
		return w.Bytes(), nil
	default:
		return nil, gerrors.NewErrUnsupportedPayloadType(body)
	}
}

func encodeCustom(custom *Custom, registry *codec.Registry) ([]byte, error) {
	payload, err := custom.payload(registry)
	if err != nil {
		return nil, err
	}

	if payload == nil {
		return []byte{0}, nil
	}

	w := wire.NewWriter(1 + wire.BlobSize(len(payload)))
	w.Uint8(1)
	w.Blob(payload)
	return w.Bytes(), nil
}

// decodeBody reads the body of type kind. Read failures are recorded in r.
func decodeBody(kind Type, name string, r *wire.Reader) (Body, error) {
	switch kind {
	case TypePing:
		return Ping{}, nil
	case TypeBuffer:
		return Buffer(r.Blob("buffer")), nil
	case TypeByteArray:
		return ByteArray(r.Blob("byte array")), nil
	case TypeString:
		return String(r.String("string")), nil
	case TypeBoolean:
		return Bool(r.Bool("boolean")), nil
	case TypeByte:
		return Byte(int8(r.Uint8("byte"))), nil
	case TypeCharacter:
		return Char(r.Uint16("character")), nil
	case TypeShort:
		return Short(int16(r.Uint16("short"))), nil
	case TypeInt:
		return Int(int32(r.Uint32("int"))), nil
	case TypeLong:
		return Long(int64(r.Uint64("long"))), nil
	case TypeFloat:
		return Float(r.Float32("float")), nil
	case TypeDouble:
		return Double(r.Float64("double")), nil
	case TypeStructObject:
		text := r.Blob("structured object")
		if r.Err() != nil {
			return nil, nil
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(text, &fields); err != nil {
			return nil, fmt.Errorf("structured object: %w", err)
		}
		value, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, fmt.Errorf("structured object: %w", err)
		}
		return Object{value: value}, nil
	case TypeStructArray:
		text := r.Blob("structured array")
		if r.Err() != nil {
			return nil, nil
		}
		var items []any
		if err := json.Unmarshal(text, &items); err != nil {
			return nil, fmt.Errorf("structured array: %w", err)
		}
		value, err := structpb.NewList(items)
		if err != nil {
			return nil, fmt.Errorf("structured array: %w", err)
		}
		return Array{value: value}, nil
	case TypeCustomObject:
		if !r.Bool("null flag") {
			return &Custom{name: name}, nil
		}
		return &Custom{name: name, raw: r.Blob("custom payload")}, nil
	case TypeReplyFailure:
		return ReplyFailure{
			Kind:   FailureKind(r.Uint8("failure kind")),
			Code:   int32(r.Uint32("failure code")),
			Reason: r.String("failure reason"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown type tag %d", kind)
	}
}
