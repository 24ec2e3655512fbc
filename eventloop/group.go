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

package eventloop

import (
	"context"
	"fmt"

	"github.com/zeebo/xxh3"
	"go.uber.org/multierr"
)

// Group is a fixed set of loops. Pick pins a key to one of them.
type Group struct {
	loops []*Loop
}

// NewGroup creates size loops sharing opts. size is at least 1.
func NewGroup(size int, opts ...Option) *Group {
	size = max(size, 1)
	loops := make([]*Loop, size)
	for i := range loops {
		loop := NewLoop(opts...)
		loop.name = fmt.Sprintf("%s-%d", loop.name, i)
		loops[i] = loop
	}
	return &Group{loops: loops}
}

// Start starts every loop
func (g *Group) Start() {
	for _, loop := range g.loops {
		loop.Start()
	}
}

// Stop stops every loop
func (g *Group) Stop(ctx context.Context) error {
	var err error
	for _, loop := range g.loops {
		err = multierr.Append(err, loop.Stop(ctx))
	}
	return err
}

// Size returns the number of loops
func (g *Group) Size() int {
	return len(g.loops)
}

// Pick returns the loop owning key. The same key always gets the same loop.
func (g *Group) Pick(key string) *Loop {
	return g.loops[xxh3.HashString(key)%uint64(len(g.loops))]
}
