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

// Package collection holds containers owned by a single goroutine.
// They perform no locking: callers serialize access.
package collection

// minFIFOLen is the smallest ring capacity. It must be a power of two so
// that x % n == x & (n - 1).
const minFIFOLen = 16

// FIFO is an unbounded first-in first-out ring buffer.
// It grows when full and shrinks when a quarter full.
type FIFO[T any] struct {
	nodes []T
	head  int
	tail  int
	count int
}

// NewFIFO creates an empty FIFO
func NewFIFO[T any]() *FIFO[T] {
	return &FIFO[T]{nodes: make([]T, minFIFOLen)}
}

// Push appends value at the back
func (q *FIFO[T]) Push(value T) {
	if q.count == len(q.nodes) {
		q.resize(q.count << 1)
	}
	q.nodes[q.tail] = value
	q.tail = (q.tail + 1) & (len(q.nodes) - 1)
	q.count++
}

// Pop removes and returns the front value.
// It reports false when the FIFO is empty.
func (q *FIFO[T]) Pop() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}

	value := q.nodes[q.head]
	q.nodes[q.head] = zero
	q.head = (q.head + 1) & (len(q.nodes) - 1)
	q.count--

	if len(q.nodes) > minFIFOLen && q.count<<2 == len(q.nodes) {
		q.resize(len(q.nodes) >> 1)
	}
	return value, true
}

// Peek returns the front value without removing it
func (q *FIFO[T]) Peek() (T, bool) {
	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.nodes[q.head], true
}

// Len returns the number of values held
func (q *FIFO[T]) Len() int {
	return q.count
}

// IsEmpty reports whether the FIFO holds no value
func (q *FIFO[T]) IsEmpty() bool {
	return q.count == 0
}

// Reset drops every value
func (q *FIFO[T]) Reset() {
	q.nodes = make([]T, minFIFOLen)
	q.head, q.tail, q.count = 0, 0, 0
}

func (q *FIFO[T]) resize(size int) {
	nodes := make([]T, size)
	if q.count > 0 {
		if q.tail > q.head {
			copy(nodes, q.nodes[q.head:q.tail])
		} else {
			n := copy(nodes, q.nodes[q.head:])
			copy(nodes[n:], q.nodes[:q.tail])
		}
	}
	q.head = 0
	q.tail = q.count & (size - 1)
	q.nodes = nodes
}
