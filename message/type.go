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

// Package message defines the unit exchanged on the event bus and its binary
// frame.
//
// A Message carries a destination address, an optional reply address, a
// send/publish flag and a Body. Body is a closed tagged union: the concrete
// Go type of the body selects the wire type tag. Values that are not one of
// the built-in bodies travel as a Custom body encoded by a codec looked up
// in a codec.Registry.
package message

// Type is the wire tag of a message body.
// Values are stable: changing them breaks frames exchanged across versions.
type Type byte

const (
	TypePing         Type = 0
	TypeBuffer       Type = 1
	TypeBoolean      Type = 2
	TypeByteArray    Type = 3
	TypeByte         Type = 4
	TypeCharacter    Type = 5
	TypeDouble       Type = 6
	TypeFloat        Type = 7
	TypeInt          Type = 8
	TypeLong         Type = 9
	TypeShort        Type = 10
	TypeString       Type = 11
	TypeStructObject Type = 12
	TypeStructArray  Type = 13
	TypeCustomObject Type = 14
	TypeReplyFailure Type = 100
)

// String returns the name of the type
func (t Type) String() string {
	switch t {
	case TypePing:
		return "Ping"
	case TypeBuffer:
		return "Buffer"
	case TypeBoolean:
		return "Boolean"
	case TypeByteArray:
		return "ByteArray"
	case TypeByte:
		return "Byte"
	case TypeCharacter:
		return "Character"
	case TypeDouble:
		return "Double"
	case TypeFloat:
		return "Float"
	case TypeInt:
		return "Int"
	case TypeLong:
		return "Long"
	case TypeShort:
		return "Short"
	case TypeString:
		return "String"
	case TypeStructObject:
		return "StructObject"
	case TypeStructArray:
		return "StructArray"
	case TypeCustomObject:
		return "CustomObject"
	case TypeReplyFailure:
		return "ReplyFailure"
	default:
		return "Unknown"
	}
}

// valid reports whether t is a known tag
func (t Type) valid() bool {
	return t <= TypeCustomObject || t == TypeReplyFailure
}

// FailureKind tells why a reply could not be delivered
type FailureKind byte

const (
	// FailureTimeout means no reply arrived in time
	FailureTimeout FailureKind = 0
	// FailureNoHandlers means nobody was subscribed to the destination
	FailureNoHandlers FailureKind = 1
	// FailureRecipient means the recipient explicitly failed the message
	FailureRecipient FailureKind = 2
)

// String returns the name of the failure kind
func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "Timeout"
	case FailureNoHandlers:
		return "NoHandlers"
	case FailureRecipient:
		return "Recipient"
	default:
		return "Unknown"
	}
}
