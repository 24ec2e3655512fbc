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

package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader consumes big-endian values from a frame.
//
// The first failure is sticky: once a read runs past the end of the frame
// every later read returns a zero value and Err reports the failure.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader creates a Reader over data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first failure encountered
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = fmt.Errorf("%s needs %d bytes at offset %d, %d left", what, n, r.pos, r.Remaining())
		return nil
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out
}

// Uint8 reads a single byte
func (r *Reader) Uint8(what string) uint8 {
	b := r.take(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads a byte and reports whether it is non zero
func (r *Reader) Bool(what string) bool {
	return r.Uint8(what) != 0
}

// Uint16 reads two bytes
func (r *Reader) Uint16(what string) uint16 {
	b := r.take(2, what)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// Uint32 reads four bytes
func (r *Reader) Uint32(what string) uint32 {
	b := r.take(4, what)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Uint64 reads eight bytes
func (r *Reader) Uint64(what string) uint64 {
	b := r.take(8, what)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Float32 reads IEEE-754 single precision bits
func (r *Reader) Float32(what string) float32 {
	return math.Float32frombits(r.Uint32(what))
}

// Float64 reads IEEE-754 double precision bits
func (r *Reader) Float64(what string) float64 {
	return math.Float64frombits(r.Uint64(what))
}

// Blob reads a length prefixed byte slice. The result is a copy and never
// aliases the frame.
func (r *Reader) Blob(what string) []byte {
	size := r.Uint32(what + " length")
	b := r.take(int(size), what)
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// String reads a length prefixed UTF-8 string
func (r *Reader) String(what string) string {
	size := r.Uint32(what + " length")
	b := r.take(int(size), what)
	if b == nil {
		return ""
	}
	return string(b)
}
