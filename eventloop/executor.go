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

// Package eventloop runs tasks on dedicated goroutines.
//
// A Loop executes its tasks one at a time in submission order, so state
// touched only from tasks of one Loop needs no locking. A Group spreads
// keys (typically bus addresses) over several loops and always picks the
// same loop for the same key.
package eventloop

// Executor runs tasks
type Executor interface {
	// Execute schedules task. Tasks submitted by a single goroutine run in submission order.
	Execute(task func())
}

type inline struct{}

// Inline runs every task on the calling goroutine
var Inline Executor = inline{}

// Execute implements Executor
func (inline) Execute(task func()) {
	task()
}
