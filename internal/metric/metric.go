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

// Package metric holds the OpenTelemetry instruments of the event bus.
package metric

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tochemey/gobus"

// Meter returns the bus meter of provider.
// A nil provider falls back to the global one.
func Meter(provider metric.MeterProvider) metric.Meter {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	return provider.Meter(instrumentationName)
}

// BusMetric groups the counters describing message flow through a bus.
//
// Instruments:
//   - eventbus.messages.sent         point-to-point messages accepted
//   - eventbus.messages.published    published messages accepted
//   - eventbus.messages.received     messages handed to a local handler
//   - eventbus.messages.undelivered  messages nobody could handle
//   - eventbus.replies.failed        acknowledged sends ending in failure
type BusMetric struct {
	sent        metric.Int64Counter
	published   metric.Int64Counter
	received    metric.Int64Counter
	undelivered metric.Int64Counter
	failed      metric.Int64Counter
}

// NewBusMetric creates the instruments with meter
func NewBusMetric(meter metric.Meter) (*BusMetric, error) {
	var (
		instruments BusMetric
		err         error
	)

	if instruments.sent, err = meter.Int64Counter(
		"eventbus.messages.sent",
		metric.WithDescription("Total number of point-to-point messages sent"),
	); err != nil {
		return nil, err
	}

	if instruments.published, err = meter.Int64Counter(
		"eventbus.messages.published",
		metric.WithDescription("Total number of messages published"),
	); err != nil {
		return nil, err
	}

	if instruments.received, err = meter.Int64Counter(
		"eventbus.messages.received",
		metric.WithDescription("Total number of messages delivered to local handlers"),
	); err != nil {
		return nil, err
	}

	if instruments.undelivered, err = meter.Int64Counter(
		"eventbus.messages.undelivered",
		metric.WithDescription("Total number of messages without any handler"),
	); err != nil {
		return nil, err
	}

	if instruments.failed, err = meter.Int64Counter(
		"eventbus.replies.failed",
		metric.WithDescription("Total number of acknowledged sends that failed or timed out"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// Sent records a point-to-point message
func (x *BusMetric) Sent(ctx context.Context, address string) {
	x.sent.Add(ctx, 1, withAddress(address))
}

// Published records a published message
func (x *BusMetric) Published(ctx context.Context, address string) {
	x.published.Add(ctx, 1, withAddress(address))
}

// Received records a local delivery
func (x *BusMetric) Received(ctx context.Context, address string) {
	x.received.Add(ctx, 1, withAddress(address))
}

// Undelivered records a message without handler
func (x *BusMetric) Undelivered(ctx context.Context, address string) {
	x.undelivered.Add(ctx, 1, withAddress(address))
}

// ReplyFailed records a failed acknowledged send
func (x *BusMetric) ReplyFailed(ctx context.Context, address, kind string) {
	x.failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("address", address),
		attribute.String("kind", kind),
	))
}

func withAddress(address string) metric.AddOption {
	return metric.WithAttributes(attribute.String("address", address))
}
