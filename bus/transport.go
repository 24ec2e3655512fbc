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

package bus

import (
	"context"
)

// Transport carries frames between processes.
//
// A bus subscribes an address on its transport when the first local handler
// for that address registers and releases it when the last one leaves.
// Frames published by a node must not be delivered back to that node.
type Transport interface {
	// Connect establishes the connection
	Connect(ctx context.Context) error
	// Send hands frame to exactly one remote subscriber of address
	Send(ctx context.Context, address string, frame []byte) error
	// Publish hands frame to every remote subscriber of address
	Publish(ctx context.Context, address string, frame []byte) error
	// Subscribe routes the frames of address to handler until the returned
	// function is called
	Subscribe(address string, handler func(frame []byte)) (func() error, error)
	// Close releases the connection and every subscription
	Close(ctx context.Context) error
}
