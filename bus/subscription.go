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
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Subscription is a handler registered on an address
type Subscription interface {
	// Address returns the subscribed address
	Address() string
	// Unsubscribe removes the handler. Calling it more than once has no effect.
	Unsubscribe() error
}

type registration struct {
	id      string
	address string
	handler Handler
	bus     *EventBus
	active  *atomic.Bool
}

var _ Subscription = (*registration)(nil)

func newRegistration(bus *EventBus, address string, handler Handler) *registration {
	return &registration{
		id:      uuid.NewString(),
		address: address,
		handler: handler,
		bus:     bus,
		active:  atomic.NewBool(true),
	}
}

// Address implements Subscription
func (r *registration) Address() string {
	return r.address
}

// Unsubscribe implements Subscription
func (r *registration) Unsubscribe() error {
	if !r.active.CompareAndSwap(true, false) {
		return nil
	}
	return r.bus.unregister(r)
}
