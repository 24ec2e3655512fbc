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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/gobus/codec"
	"github.com/tochemey/gobus/log"
)

// DefaultTimeout bounds an acknowledged send when no timeout is given
const DefaultTimeout = 30 * time.Second

// Option is the interface that applies an EventBus option.
type Option interface {
	// Apply sets the Option value of an EventBus.
	Apply(bus *EventBus)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(bus *EventBus)

// Apply applies the EventBus's option
func (f OptionFunc) Apply(bus *EventBus) {
	f(bus)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(bus *EventBus) {
		bus.logger = logger
	})
}

// WithRegistry sets the codec registry used for custom bodies
func WithRegistry(registry *codec.Registry) Option {
	return OptionFunc(func(bus *EventBus) {
		bus.registry = registry
	})
}

// WithTransport bridges the bus to other processes
func WithTransport(transport Transport) Option {
	return OptionFunc(func(bus *EventBus) {
		bus.transport = transport
	})
}

// WithDefaultTimeout sets the timeout of acknowledged sends made without one
func WithDefaultTimeout(timeout time.Duration) Option {
	return OptionFunc(func(bus *EventBus) {
		if timeout > 0 {
			bus.defaultTimeout = timeout
		}
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(bus *EventBus) {
		bus.meterProvider = provider
	})
}
