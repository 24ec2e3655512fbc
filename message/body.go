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
	"bytes"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tochemey/gobus/codec"
	gerrors "github.com/tochemey/gobus/errors"
)

// Body is the payload of a Message. The set of implementations is closed:
// each one maps to exactly one wire Type.
type Body interface {
	// Type returns the wire tag of the body
	Type() Type
	sealed()
}

type (
	// Ping is an empty body
	Ping struct{}
	// Buffer is a chunk of a byte stream. A zero-length Buffer marks the end of a stream.
	Buffer []byte
	// ByteArray is an opaque byte array
	ByteArray []byte
	// Bool is a boolean body
	Bool bool
	// Byte is a signed 8-bit body
	Byte int8
	// Char is a UTF-16 code unit
	Char uint16
	// Double is a 64-bit floating point body
	Double float64
	// Float is a 32-bit floating point body
	Float float32
	// Int is a signed 32-bit body
	Int int32
	// Long is a signed 64-bit body
	Long int64
	// Short is a signed 16-bit body
	Short int16
	// String is a UTF-8 text body
	String string
)

func (Ping) Type() Type      { return TypePing }
func (Buffer) Type() Type    { return TypeBuffer }
func (ByteArray) Type() Type { return TypeByteArray }
func (Bool) Type() Type      { return TypeBoolean }
func (Byte) Type() Type      { return TypeByte }
func (Char) Type() Type      { return TypeCharacter }
func (Double) Type() Type    { return TypeDouble }
func (Float) Type() Type     { return TypeFloat }
func (Int) Type() Type       { return TypeInt }
func (Long) Type() Type      { return TypeLong }
func (Short) Type() Type     { return TypeShort }
func (String) Type() Type    { return TypeString }

func (Ping) sealed()      {}
func (Buffer) sealed()    {}
func (ByteArray) sealed() {}
func (Bool) sealed()      {}
func (Byte) sealed()      {}
func (Char) sealed()      {}
func (Double) sealed()    {}
func (Float) sealed()     {}
func (Int) sealed()       {}
func (Long) sealed()      {}
func (Short) sealed()     {}
func (String) sealed()    {}

// Object is a JSON-like structured object
type Object struct {
	value *structpb.Struct
}

// NewObject builds an Object from plain Go values.
// See structpb.NewValue for the accepted field types.
func NewObject(fields map[string]any) (Object, error) {
	value, err := structpb.NewStruct(fields)
	if err != nil {
		return Object{}, err
	}
	return Object{value: value}, nil
}

// ObjectOf wraps a copy of value
func ObjectOf(value *structpb.Struct) Object {
	if value == nil {
		return Object{value: &structpb.Struct{}}
	}
	return Object{value: proto.Clone(value).(*structpb.Struct)}
}

func (Object) Type() Type { return TypeStructObject }
func (Object) sealed()    {}

// Struct returns the underlying structure
func (o Object) Struct() *structpb.Struct {
	if o.value == nil {
		return &structpb.Struct{}
	}
	return o.value
}

// AsMap converts the object into plain Go values
func (o Object) AsMap() map[string]any {
	return o.Struct().AsMap()
}

// Array is a JSON-like structured array
type Array struct {
	value *structpb.ListValue
}

// NewArray builds an Array from plain Go values
func NewArray(items []any) (Array, error) {
	value, err := structpb.NewList(items)
	if err != nil {
		return Array{}, err
	}
	return Array{value: value}, nil
}

// ArrayOf wraps a copy of value
func ArrayOf(value *structpb.ListValue) Array {
	if value == nil {
		return Array{value: &structpb.ListValue{}}
	}
	return Array{value: proto.Clone(value).(*structpb.ListValue)}
}

func (Array) Type() Type { return TypeStructArray }
func (Array) sealed()    {}

// List returns the underlying list
func (a Array) List() *structpb.ListValue {
	if a.value == nil {
		return &structpb.ListValue{}
	}
	return a.value
}

// AsSlice converts the array into plain Go values
func (a Array) AsSlice() []any {
	return a.List().AsSlice()
}

// Custom is an application defined value encoded by the codec registered
// under its name.
//
// A Custom built locally holds the value itself. A Custom read from a frame
// only holds the encoded payload until it is resolved against a registry.
type Custom struct {
	name  string
	value any
	raw   []byte
	local bool
}

// NewCustom creates a Custom body for value, encoded by the codec
// registered under name. A nil value is sent as a null payload.
func NewCustom(name string, value any) *Custom {
	return &Custom{name: name, value: value, local: true}
}

func (*Custom) Type() Type { return TypeCustomObject }
func (*Custom) sealed()    {}

// Name returns the registry key of the codec
func (c *Custom) Name() string {
	return c.name
}

// Value returns the application value. It reports false for a body read
// from a frame, which must be resolved first.
func (c *Custom) Value() (any, bool) {
	return c.value, c.local
}

// Raw returns the encoded payload of a body read from a frame
func (c *Custom) Raw() []byte {
	return c.raw
}

// IsNull reports whether the body carries no value
func (c *Custom) IsNull() bool {
	if c.local {
		return c.value == nil
	}
	return c.raw == nil
}

// resolve materializes the value with the codec found in registry
func (c *Custom) resolve(registry *codec.Registry) (any, error) {
	if c.local {
		return c.value, nil
	}

	if registry == nil {
		return nil, gerrors.NewErrCodecNotFound(c.name)
	}

	cdc, ok := registry.Lookup(c.name)
	if !ok {
		return nil, gerrors.NewErrCodecNotFound(c.name)
	}
	return cdc.Decode(c.raw)
}

// payload returns the encoded value, nil for a null body
func (c *Custom) payload(registry *codec.Registry) ([]byte, error) {
	if !c.local || c.value == nil {
		return c.raw, nil
	}

	if registry == nil {
		return nil, gerrors.NewErrCodecNotFound(c.name)
	}

	cdc, ok := registry.Lookup(c.name)
	if !ok {
		return nil, gerrors.NewErrCodecNotFound(c.name)
	}

	bytea, err := cdc.Encode(c.value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode type=(%s): %w", c.name, err)
	}
	return bytea, nil
}

// detach returns a body the sender can no longer mutate
func (c *Custom) detach(registry *codec.Registry) (*Custom, error) {
	if !c.local || c.value == nil {
		return c, nil
	}

	switch c.value.(type) {
	case codec.Shareable:
		return c, nil
	case codec.Copier, proto.Message:
		return c.copy()
	}

	raw, err := c.payload(registry)
	if err != nil {
		return nil, err
	}
	return &Custom{name: c.name, raw: raw}, nil
}

// copyable reports whether the body can be delivered to one more handler
func (c *Custom) copyable() error {
	if !c.local || c.value == nil {
		return nil
	}
	switch c.value.(type) {
	case codec.Shareable, codec.Copier, proto.Message:
		return nil
	default:
		return gerrors.NewErrUncopyable(c.name)
	}
}

// copy returns a body that shares no mutable state with c
func (c *Custom) copy() (*Custom, error) {
	if !c.local {
		return &Custom{name: c.name, raw: bytes.Clone(c.raw)}, nil
	}

	if c.value == nil {
		return c, nil
	}

	switch value := c.value.(type) {
	case codec.Shareable:
		return c, nil
	case codec.Copier:
		return NewCustom(c.name, value.DeepCopy()), nil
	case proto.Message:
		return NewCustom(c.name, proto.Clone(value)), nil
	default:
		return nil, gerrors.NewErrUncopyable(c.name)
	}
}

// ReplyFailure is synthesized when a reply cannot be delivered
type ReplyFailure struct {
	Kind   FailureKind
	Code   int32
	Reason string
}

func (ReplyFailure) Type() Type { return TypeReplyFailure }
func (ReplyFailure) sealed()    {}

// BodyOf picks the body variant for value.
//
// The dispatch order is fixed: nil becomes an empty String, then string,
// Buffer, structured object, structured array, byte slice, int32, int64,
// float32, float64, bool, int16, Char and int8 or uint8 are tried. A Body is
// used as is. Anything else is looked up in registry by codec.NameOf and
// becomes a Custom body; when no codec is found the call fails with
// ErrUnsupportedPayloadType. Values are never widened or narrowed, so a Go
// int is rejected.
//
// Byte slices and structures are copied: the body never aliases the caller's data.
func BodyOf(value any, registry *codec.Registry) (Body, error) {
	switch v := value.(type) {
	case nil:
		return String(""), nil
	case string:
		return String(v), nil
	case String:
		return v, nil
	case Buffer:
		return Buffer(bytes.Clone(v)), nil
	case Object:
		return ObjectOf(v.value), nil
	case *structpb.Struct:
		return ObjectOf(v), nil
	case Array:
		return ArrayOf(v.value), nil
	case *structpb.ListValue:
		return ArrayOf(v), nil
	case []byte:
		return ByteArray(bytes.Clone(v)), nil
	case ByteArray:
		return ByteArray(bytes.Clone(v)), nil
	case int32:
		return Int(v), nil
	case Int:
		return v, nil
	case int64:
		return Long(v), nil
	case Long:
		return v, nil
	case float32:
		return Float(v), nil
	case Float:
		return v, nil
	case float64:
		return Double(v), nil
	case Double:
		return v, nil
	case bool:
		return Bool(v), nil
	case Bool:
		return v, nil
	case int16:
		return Short(v), nil
	case Short:
		return v, nil
	case Char:
		return v, nil
	case int8:
		return Byte(v), nil
	case uint8:
		return Byte(int8(v)), nil
	case Byte:
		return v, nil
	case Body:
		return v, nil
	}

	if registry != nil {
		name := codec.NameOf(value)
		if _, ok := registry.Lookup(name); ok {
			return NewCustom(name, value), nil
		}
	}
	return nil, gerrors.NewErrUnsupportedPayloadType(value)
}

// copyBody isolates body for one more local handler
func copyBody(body Body) (Body, error) {
	switch b := body.(type) {
	case Buffer:
		return Buffer(bytes.Clone(b)), nil
	case ByteArray:
		return ByteArray(bytes.Clone(b)), nil
	case Object:
		return ObjectOf(b.value), nil
	case Array:
		return ArrayOf(b.value), nil
	case *Custom:
		return b.copy()
	default:
		// the remaining variants are values
		return body, nil
	}
}

// valueOf returns the Go value carried by a built-in body
func valueOf(body Body) any {
	switch b := body.(type) {
	case Ping:
		return b
	case Buffer:
		return b
	case ByteArray:
		return []byte(b)
	case Bool:
		return bool(b)
	case Byte:
		return int8(b)
	case Char:
		return b
	case Double:
		return float64(b)
	case Float:
		return float32(b)
	case Int:
		return int32(b)
	case Long:
		return int64(b)
	case Short:
		return int16(b)
	case String:
		return string(b)
	case Object:
		return b.Struct()
	case Array:
		return b.List()
	default:
		return body
	}
}
