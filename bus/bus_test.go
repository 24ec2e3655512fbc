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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/tochemey/gobus/codec"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/log"
	"github.com/tochemey/gobus/message"
)

type ledger struct {
	Entries []string `cbor:"entries"`
}

type snapshot struct {
	Version int `cbor:"version"`
}

// DeepCopy implements codec.Copier
func (s *snapshot) DeepCopy() any {
	out := *s
	return &out
}

// hub links memory transports of several buses
type hub struct {
	mu          sync.Mutex
	subscribers map[string][]*hubSubscriber
}

type hubSubscriber struct {
	node    *memoryTransport
	handler func([]byte)
}

func newHub() *hub {
	return &hub{subscribers: make(map[string][]*hubSubscriber)}
}

// memoryTransport delivers frames synchronously to the other nodes of its hub
type memoryTransport struct {
	hub       *hub
	connected *atomic.Bool
	subs      *atomic.Int32
	failSend  error
}

var _ Transport = (*memoryTransport)(nil)

func newMemoryTransport(h *hub) *memoryTransport {
	return &memoryTransport{hub: h, connected: atomic.NewBool(false), subs: atomic.NewInt32(0)}
}

func (m *memoryTransport) Connect(context.Context) error {
	m.connected.Store(true)
	return nil
}

func (m *memoryTransport) remotes(address string) []*hubSubscriber {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	var out []*hubSubscriber
	for _, sub := range m.hub.subscribers[address] {
		if sub.node != m {
			out = append(out, sub)
		}
	}
	return out
}

func (m *memoryTransport) Send(_ context.Context, address string, frame []byte) error {
	if m.failSend != nil {
		return m.failSend
	}
	if remotes := m.remotes(address); len(remotes) > 0 {
		remotes[0].handler(frame)
	}
	return nil
}

func (m *memoryTransport) Publish(_ context.Context, address string, frame []byte) error {
	for _, remote := range m.remotes(address) {
		remote.handler(frame)
	}
	return nil
}

func (m *memoryTransport) Subscribe(address string, handler func([]byte)) (func() error, error) {
	sub := &hubSubscriber{node: m, handler: handler}
	m.hub.mu.Lock()
	m.hub.subscribers[address] = append(m.hub.subscribers[address], sub)
	m.hub.mu.Unlock()
	m.subs.Inc()

	return func() error {
		m.hub.mu.Lock()
		defer m.hub.mu.Unlock()
		subs := m.hub.subscribers[address]
		for i, existing := range subs {
			if existing == sub {
				m.hub.subscribers[address] = append(subs[:i:i], subs[i+1:]...)
				m.subs.Dec()
				break
			}
		}
		return nil
	}, nil
}

func (m *memoryTransport) Close(context.Context) error {
	m.connected.Store(false)
	return nil
}

func newTestBus(t *testing.T, opts ...Option) *EventBus {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger), WithMeterProvider(noop.NewMeterProvider())}, opts...)
	bus, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

type outcome struct {
	reply *message.Message
	err   error
}

func awaitOutcome(t *testing.T, outcomes <-chan outcome) outcome {
	t.Helper()
	select {
	case out := <-outcomes:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no reply outcome")
		return outcome{}
	}
}

func TestLifecycle(t *testing.T) {
	t.Run("With operations before start", func(t *testing.T) {
		bus, err := New(WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		_, err = bus.Subscribe("a", func(*message.Message) {})
		assert.ErrorIs(t, err, gerrors.ErrBusNotStarted)
		assert.ErrorIs(t, bus.Send("a", "x"), gerrors.ErrBusNotStarted)
		assert.ErrorIs(t, bus.Stop(context.Background()), gerrors.ErrBusNotStarted)
	})
	t.Run("With operations after stop", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		transport := newMemoryTransport(newHub())
		bus := newTestBus(t, WithTransport(transport))
		assert.True(t, transport.connected.Load())
		require.NoError(t, bus.Start(context.Background()))

		_, err := bus.Subscribe("a", func(*message.Message) {})
		require.NoError(t, err)
		assert.EqualValues(t, 1, transport.subs.Load())

		require.NoError(t, bus.Stop(context.Background()))
		require.NoError(t, bus.Stop(context.Background()))
		assert.False(t, transport.connected.Load())
		assert.Zero(t, transport.subs.Load())
		assert.Zero(t, bus.HandlerCount("a"))

		assert.ErrorIs(t, bus.Publish("a", "x"), gerrors.ErrBusClosed)
		assert.ErrorIs(t, bus.Start(context.Background()), gerrors.ErrBusClosed)
		_, err = bus.Subscribe("a", func(*message.Message) {})
		assert.ErrorIs(t, err, gerrors.ErrBusClosed)
	})
	t.Run("With invalid subscription", func(t *testing.T) {
		bus := newTestBus(t)
		_, err := bus.Subscribe("", func(*message.Message) {})
		assert.ErrorIs(t, err, gerrors.ErrInvalidAddress)
		_, err = bus.Subscribe("a", nil)
		assert.ErrorIs(t, err, gerrors.ErrInvalidHandler)
		require.NoError(t, bus.Stop(context.Background()))
	})
}

func TestSend(t *testing.T) {
	t.Run("With round robin", func(t *testing.T) {
		bus := newTestBus(t)
		var first, second int
		_, err := bus.Subscribe("jobs", func(*message.Message) { first++ })
		require.NoError(t, err)
		_, err = bus.Subscribe("jobs", func(*message.Message) { second++ })
		require.NoError(t, err)
		assert.Equal(t, 2, bus.HandlerCount("jobs"))

		for range 6 {
			require.NoError(t, bus.Send("jobs", int32(1)))
		}
		assert.Equal(t, 3, first)
		assert.Equal(t, 3, second)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With message content", func(t *testing.T) {
		bus := newTestBus(t)
		var received *message.Message
		_, err := bus.Subscribe("greetings", func(msg *message.Message) { received = msg })
		require.NoError(t, err)

		require.NoError(t, bus.Send("greetings", "hello"))
		require.NotNil(t, received)
		assert.True(t, received.IsSend())
		assert.Equal(t, "greetings", received.Address())
		assert.Equal(t, message.String("hello"), received.Body())
		_, ok := received.ReplyAddress()
		assert.False(t, ok)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With no handlers", func(t *testing.T) {
		bus := newTestBus(t)
		assert.NoError(t, bus.Send("nobody", "x"))
		assert.NoError(t, bus.Publish("nobody", "x"))
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With unsupported body", func(t *testing.T) {
		bus := newTestBus(t)
		assert.ErrorIs(t, bus.Send("a", 42), gerrors.ErrUnsupportedPayloadType)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With unsubscribe", func(t *testing.T) {
		bus := newTestBus(t)
		count := 0
		sub, err := bus.Subscribe("a", func(*message.Message) { count++ })
		require.NoError(t, err)
		assert.Equal(t, "a", sub.Address())

		require.NoError(t, bus.Send("a", "x"))
		require.NoError(t, sub.Unsubscribe())
		require.NoError(t, sub.Unsubscribe())
		require.NoError(t, bus.Send("a", "x"))
		assert.Equal(t, 1, count)
		assert.Zero(t, bus.HandlerCount("a"))
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With sender mutating the body after send", func(t *testing.T) {
		registry := codec.NewRegistry()
		require.NoError(t, registry.RegisterFor(new(snapshot), codec.NewCBOR[*snapshot]()))
		require.NoError(t, registry.RegisterFor(new(ledger), codec.NewCBOR[*ledger]()))
		bus := newTestBus(t, WithRegistry(registry))

		var received []*message.Message
		_, err := bus.Subscribe("snapshots", func(msg *message.Message) { received = append(received, msg) })
		require.NoError(t, err)
		_, err = bus.Subscribe("ledger", func(msg *message.Message) { received = append(received, msg) })
		require.NoError(t, err)

		current := &snapshot{Version: 1}
		require.NoError(t, bus.Send("snapshots", current))
		entries := &ledger{Entries: []string{"open"}}
		require.NoError(t, bus.Send("ledger", entries))

		current.Version = 2
		entries.Entries[0] = "closed"

		require.Len(t, received, 2)
		value, err := bus.Serializer().Resolve(received[0])
		require.NoError(t, err)
		assert.NotSame(t, current, value)
		assert.Equal(t, &snapshot{Version: 1}, value)

		custom := received[1].Body().(*message.Custom)
		_, local := custom.Value()
		assert.False(t, local)
		value, err = bus.Serializer().Resolve(received[1])
		require.NoError(t, err)
		assert.Equal(t, &ledger{Entries: []string{"open"}}, value)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With panicking handler", func(t *testing.T) {
		bus := newTestBus(t)
		_, err := bus.Subscribe("a", func(*message.Message) { panic("boom") })
		require.NoError(t, err)
		assert.NotPanics(t, func() { _ = bus.Send("a", "x") })
		require.NoError(t, bus.Stop(context.Background()))
	})
}

func TestPublish(t *testing.T) {
	t.Run("With copy for every extra handler", func(t *testing.T) {
		bus := newTestBus(t)
		var (
			received []*message.Message
			seen     []string
		)
		for range 3 {
			_, err := bus.Subscribe("news", func(msg *message.Message) {
				received = append(received, msg)
				buffer := msg.Body().(message.Buffer)
				seen = append(seen, string(buffer))
				// mutating one delivery must not leak into another
				buffer[0] = 'X'
			})
			require.NoError(t, err)
		}

		require.NoError(t, bus.Publish("news", message.Buffer("abc")))
		require.Len(t, received, 3)
		assert.Equal(t, []string{"abc", "abc", "abc"}, seen)
		assert.NotSame(t, received[0], received[1])
		assert.NotSame(t, received[1], received[2])
		assert.False(t, received[0].IsSend())
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With copier custom body", func(t *testing.T) {
		registry := codec.NewRegistry()
		require.NoError(t, registry.RegisterFor(new(snapshot), codec.NewCBOR[*snapshot]()))
		bus := newTestBus(t, WithRegistry(registry))

		var values []any
		for range 2 {
			_, err := bus.Subscribe("snapshots", func(msg *message.Message) {
				value, err := bus.Serializer().Resolve(msg)
				require.NoError(t, err)
				values = append(values, value)
			})
			require.NoError(t, err)
		}

		original := &snapshot{Version: 3}
		require.NoError(t, bus.Publish("snapshots", original))
		require.Len(t, values, 2)
		assert.NotSame(t, original, values[0])
		assert.Equal(t, original, values[0])
		assert.NotSame(t, original, values[1])
		assert.Equal(t, original, values[1])
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With uncopyable custom body", func(t *testing.T) {
		registry := codec.NewRegistry()
		require.NoError(t, registry.RegisterFor(new(ledger), codec.NewCBOR[*ledger]()))
		bus := newTestBus(t, WithRegistry(registry))

		delivered := 0
		_, err := bus.Subscribe("ledger", func(*message.Message) { delivered++ })
		require.NoError(t, err)

		// a single handler receives the encoded form
		require.NoError(t, bus.Publish("ledger", &ledger{}))
		assert.Equal(t, 1, delivered)

		_, err = bus.Subscribe("ledger", func(*message.Message) { delivered++ })
		require.NoError(t, err)
		err = bus.Publish("ledger", &ledger{})
		assert.ErrorIs(t, err, gerrors.ErrUncopyable)
		assert.Equal(t, 1, delivered)

		// point-to-point reaches a single handler
		require.NoError(t, bus.Send("ledger", &ledger{}))
		assert.Equal(t, 2, delivered)
		require.NoError(t, bus.Stop(context.Background()))
	})
}

func TestSendWithAck(t *testing.T) {
	t.Run("With reply", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		bus := newTestBus(t)
		_, err := bus.Subscribe("echo", func(msg *message.Message) {
			reply, ok := msg.ReplyAddress()
			assert.True(t, ok)
			assert.NotEmpty(t, reply)
			require.NoError(t, bus.Reply(msg, "pong"))
		})
		require.NoError(t, err)

		outcomes := make(chan outcome, 2)
		require.NoError(t, bus.SendWithAck("echo", "ping", time.Second, func(reply *message.Message, err error) {
			outcomes <- outcome{reply, err}
		}))

		out := awaitOutcome(t, outcomes)
		require.NoError(t, out.err)
		assert.Equal(t, message.String("pong"), out.reply.Body())
		// the reply address is released
		assert.Equal(t, 1, len(bus.addresses))
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With recipient failure", func(t *testing.T) {
		bus := newTestBus(t)
		_, err := bus.Subscribe("validate", func(msg *message.Message) {
			require.NoError(t, bus.Fail(msg, 422, "invalid order"))
		})
		require.NoError(t, err)

		outcomes := make(chan outcome, 1)
		require.NoError(t, bus.SendWithAck("validate", "order", time.Second, func(reply *message.Message, err error) {
			outcomes <- outcome{reply, err}
		}))

		out := awaitOutcome(t, outcomes)
		assert.Nil(t, out.reply)
		assert.ErrorIs(t, out.err, gerrors.ErrSendFailed)
		var failure *message.ReplyFailureError
		require.True(t, errors.As(out.err, &failure))
		assert.EqualValues(t, 422, failure.Failure.Code)
		assert.Equal(t, "invalid order", failure.Failure.Reason)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With timeout and late reply ignored", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		bus := newTestBus(t)
		var held *message.Message
		_, err := bus.Subscribe("slow", func(msg *message.Message) { held = msg })
		require.NoError(t, err)

		outcomes := make(chan outcome, 2)
		require.NoError(t, bus.SendWithAck("slow", "x", 20*time.Millisecond, func(reply *message.Message, err error) {
			outcomes <- outcome{reply, err}
		}))

		out := awaitOutcome(t, outcomes)
		assert.ErrorIs(t, out.err, gerrors.ErrSendTimeout)

		require.NotNil(t, held)
		require.NoError(t, bus.Reply(held, "too late"))
		select {
		case <-outcomes:
			t.Fatal("a second outcome was reported")
		case <-time.After(50 * time.Millisecond):
		}
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With no handlers", func(t *testing.T) {
		bus := newTestBus(t)
		outcomes := make(chan outcome, 1)
		require.NoError(t, bus.SendWithAck("nobody", "x", time.Second, func(reply *message.Message, err error) {
			outcomes <- outcome{reply, err}
		}))

		out := awaitOutcome(t, outcomes)
		assert.ErrorIs(t, out.err, gerrors.ErrNoHandlers)
		assert.Empty(t, bus.addresses)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With bus stopped while waiting", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		bus := newTestBus(t)
		_, err := bus.Subscribe("silent", func(*message.Message) {})
		require.NoError(t, err)

		outcomes := make(chan outcome, 1)
		require.NoError(t, bus.SendWithAck("silent", "x", time.Minute, func(reply *message.Message, err error) {
			outcomes <- outcome{reply, err}
		}))
		require.NoError(t, bus.Stop(context.Background()))

		out := awaitOutcome(t, outcomes)
		assert.ErrorIs(t, out.err, gerrors.ErrBusClosed)
	})
	t.Run("With invalid input", func(t *testing.T) {
		bus := newTestBus(t)
		assert.ErrorIs(t, bus.SendWithAck("a", "x", time.Second, nil), gerrors.ErrInvalidHandler)
		assert.ErrorIs(t, bus.SendWithAck("a", 42, time.Second, func(*message.Message, error) {}), gerrors.ErrUnsupportedPayloadType)
		assert.Empty(t, bus.addresses)
		require.NoError(t, bus.Stop(context.Background()))
	})
	t.Run("With reply to a message without reply address", func(t *testing.T) {
		bus := newTestBus(t)
		msg, err := bus.Serializer().Encode("a", true, "", "x")
		require.NoError(t, err)
		assert.NoError(t, bus.Reply(msg, "ignored"))
		require.NoError(t, bus.Stop(context.Background()))
	})
}

func TestTransportBridge(t *testing.T) {
	defer goleak.VerifyNone(t)
	network := newHub()
	transportA := newMemoryTransport(network)
	transportB := newMemoryTransport(network)
	busA := newTestBus(t, WithTransport(transportA))
	busB := newTestBus(t, WithTransport(transportB))

	t.Run("With send forwarded to the remote handler", func(t *testing.T) {
		var received []*message.Message
		sub, err := busB.Subscribe("orders", func(msg *message.Message) { received = append(received, msg) })
		require.NoError(t, err)
		assert.EqualValues(t, 1, transportB.subs.Load())

		require.NoError(t, busA.Send("orders", int64(7)))
		require.Len(t, received, 1)
		assert.Equal(t, message.Long(7), received[0].Body())

		require.NoError(t, sub.Unsubscribe())
		assert.Zero(t, transportB.subs.Load())
	})
	t.Run("With publish reaching local and remote handlers", func(t *testing.T) {
		var local, remote int
		_, err := busA.Subscribe("news", func(*message.Message) { local++ })
		require.NoError(t, err)
		_, err = busB.Subscribe("news", func(*message.Message) { remote++ })
		require.NoError(t, err)

		require.NoError(t, busA.Publish("news", "headline"))
		assert.Equal(t, 1, local)
		assert.Equal(t, 1, remote)
	})
	t.Run("With reply across nodes", func(t *testing.T) {
		_, err := busB.Subscribe("sum", func(msg *message.Message) {
			value, err := busB.Serializer().Resolve(msg)
			require.NoError(t, err)
			require.NoError(t, busB.Reply(msg, value.(int32)+1))
		})
		require.NoError(t, err)

		outcomes := make(chan outcome, 1)
		require.NoError(t, busA.SendWithAck("sum", int32(41), time.Second, func(reply *message.Message, err error) {
			outcomes <- outcome{reply, err}
		}))
		out := awaitOutcome(t, outcomes)
		require.NoError(t, out.err)
		assert.Equal(t, message.Int(42), out.reply.Body())
	})
	t.Run("With transport failure", func(t *testing.T) {
		transportA.failSend = errors.New("network down")
		t.Cleanup(func() { transportA.failSend = nil })
		assert.ErrorIs(t, busA.Send("elsewhere", "x"), gerrors.ErrSendFailed)
	})

	require.NoError(t, busA.Stop(context.Background()))
	require.NoError(t, busB.Stop(context.Background()))
}
