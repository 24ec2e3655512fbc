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

// Package codec holds the extension point for application defined message
// bodies: a Codec turns a value into bytes and back, and a Registry maps a
// type name to the Codec that handles it.
//
// Lookup is an exact string match on the name a value was registered under.
// There is no fallback to a base or interface type: a codec registered for
// "*orders.Event" does not serve "*orders.Placed". Layer such a resolver on
// top of the Registry when polymorphic dispatch is needed.
package codec

import "reflect"

// Codec encodes and decodes one application defined type.
//
// Encode may return a nil slice to put a null payload on the wire; Decode then
// receives nil. Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes value.
	Encode(value any) ([]byte, error)
	// Decode rebuilds a value from bytes produced by Encode.
	Decode(data []byte) (any, error)
}

// Shareable is implemented by values that are immutable by contract.
// They are handed as is to every local handler.
type Shareable interface {
	Shareable()
}

// Copier is implemented by values that can produce an independent deep copy.
// The copy must not share any mutable state with the receiver.
type Copier interface {
	DeepCopy() any
}

// NameOf returns the registry key of a value: the exact string form of its
// runtime type, e.g. "*orders.Placed" or "orders.Placed".
func NameOf(value any) string {
	rtype := reflect.TypeOf(value)
	if rtype == nil {
		return ""
	}
	return rtype.String()
}
