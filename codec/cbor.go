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

	"github.com/fxamacker/cbor/v2"

	gerrors "github.com/tochemey/gobus/errors"
)

var (
	cborEncOpts = cbor.CoreDetEncOptions()
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}
)

// CBOR encodes values of type T with the Concise Binary Object
// Representation. Map keys are sorted so equal values produce equal bytes.
type CBOR[T any] struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// enforce compilation error
var _ Codec = (*CBOR[struct{}])(nil)

// NewCBOR creates a CBOR codec for T
func NewCBOR[T any]() *CBOR[T] {
	encMode, _ := cborEncOpts.EncMode()
	decMode, _ := cborDecOpts.DecMode()
	return &CBOR[T]{encMode: encMode, decMode: decMode}
}

// Encode implements Codec. A nil value encodes to a null payload.
func (c *CBOR[T]) Encode(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("expected=(%T) got=(%T) %w", zero, value, gerrors.ErrCodecTypeMismatch)
	}

	bytea, err := c.encMode.Marshal(typed)
	if err != nil {
		return nil, errors.Join(errors.New("failed to CBOR encode value"), err)
	}
	return bytea, nil
}

// Decode implements Codec. A null payload decodes to nil.
func (c *CBOR[T]) Decode(data []byte) (any, error) {
	if data == nil {
		return nil, nil
	}

	var out T
	if err := c.decMode.Unmarshal(data, &out); err != nil {
		return nil, errors.Join(errors.New("failed to CBOR decode value"), err)
	}
	return out, nil
}
