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

package metric

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type recordingCounter struct {
	noop.Int64Counter
	mu    sync.Mutex
	total int64
}

func (c *recordingCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.mu.Lock()
	c.total += incr
	c.mu.Unlock()
}

type recordingMeter struct {
	noop.Meter
	counters map[string]*recordingCounter
}

func (m *recordingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	counter := &recordingCounter{}
	m.counters[name] = counter
	return counter, nil
}

type recordingProvider struct {
	noop.MeterProvider
	names []string
}

func (p *recordingProvider) Meter(name string, _ ...metric.MeterOption) metric.Meter {
	p.names = append(p.names, name)
	return noop.NewMeterProvider().Meter(name)
}

func TestMeter(t *testing.T) {
	t.Run("With explicit provider", func(t *testing.T) {
		provider := &recordingProvider{}
		require.NotNil(t, Meter(provider))
		assert.Equal(t, []string{instrumentationName}, provider.names)
	})
	t.Run("With global provider", func(t *testing.T) {
		previous := otel.GetMeterProvider()
		provider := &recordingProvider{}
		otel.SetMeterProvider(provider)
		t.Cleanup(func() { otel.SetMeterProvider(previous) })

		require.NotNil(t, Meter(nil))
		assert.Equal(t, []string{instrumentationName}, provider.names)
	})
}

func TestBusMetric(t *testing.T) {
	meter := &recordingMeter{counters: make(map[string]*recordingCounter)}
	instruments, err := NewBusMetric(meter)
	require.NoError(t, err)

	ctx := context.Background()
	instruments.Sent(ctx, "a")
	instruments.Sent(ctx, "a")
	instruments.Published(ctx, "a")
	instruments.Received(ctx, "a")
	instruments.Undelivered(ctx, "a")
	instruments.ReplyFailed(ctx, "a", "Timeout")

	assert.EqualValues(t, 2, meter.counters["eventbus.messages.sent"].total)
	assert.EqualValues(t, 1, meter.counters["eventbus.messages.published"].total)
	assert.EqualValues(t, 1, meter.counters["eventbus.messages.received"].total)
	assert.EqualValues(t, 1, meter.counters["eventbus.messages.undelivered"].total)
	assert.EqualValues(t, 1, meter.counters["eventbus.replies.failed"].total)

	_, err = NewBusMetric(noop.NewMeterProvider().Meter("noop"))
	require.NoError(t, err)
}
