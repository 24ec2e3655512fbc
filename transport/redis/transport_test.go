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

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tochemey/gobus/bus"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/internal/compression"
	"github.com/tochemey/gobus/log"
	"github.com/tochemey/gobus/message"
)

func startRedis(t *testing.T) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(t.Context(), testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	endpoint, err := container.Endpoint(t.Context(), "")
	require.NoError(t, err)
	return endpoint
}

// waitSubscribers blocks until the server counts n subscribers on the channel of address
func waitSubscribers(t *testing.T, addr, address string, n int64) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	channel := DefaultKeyPrefix + ":publish:" + address
	require.Eventually(t, func() bool {
		counts, err := client.PubSubNumSub(t.Context(), channel).Result()
		return err == nil && counts[channel] >= n
	}, 5*time.Second, 50*time.Millisecond)
}

func newBus(t *testing.T, ctx context.Context, config *Config) *bus.EventBus {
	t.Helper()
	eventBus, err := bus.New(
		bus.WithLogger(log.DiscardLogger),
		bus.WithTransport(New(config, WithLogger(log.DiscardLogger))))
	require.NoError(t, err)
	require.NoError(t, eventBus.Start(ctx))
	return eventBus
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestConfig(t *testing.T) {
	t.Run("With valid config", func(t *testing.T) {
		config := &Config{Addr: "127.0.0.1:6379", Compression: "br"}
		require.NoError(t, config.Validate())

		config.sanitize()
		assert.Equal(t, DefaultKeyPrefix, config.KeyPrefix)
		assert.Equal(t, DefaultPollTimeout, config.PollTimeout)
	})
	t.Run("With invalid config", func(t *testing.T) {
		config := &Config{Addr: "localhost", DB: -1, KeyPrefix: "a b", Compression: "lz4", PollTimeout: -time.Second}
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "localhost")
		assert.Contains(t, err.Error(), "DB")
		assert.Contains(t, err.Error(), "KeyPrefix")
		assert.Contains(t, err.Error(), "Compression")
		assert.Contains(t, err.Error(), "PollTimeout")
	})
}

func TestTransportNotConnected(t *testing.T) {
	ctx := context.Background()
	transport := New(&Config{Addr: "127.0.0.1:6379"})
	require.ErrorIs(t, transport.Send(ctx, "orders", []byte("x")), gerrors.ErrTransportNotConnected)
	require.ErrorIs(t, transport.Publish(ctx, "orders", []byte("x")), gerrors.ErrTransportNotConnected)
	_, err := transport.Subscribe("orders", func([]byte) {})
	require.ErrorIs(t, err, gerrors.ErrTransportNotConnected)
	require.NoError(t, transport.Close(ctx))
	require.Error(t, New(&Config{}).Connect(ctx))
}

func TestTransport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	addr := startRedis(t)

	t.Run("With send between buses", func(t *testing.T) {
		sender := newBus(t, ctx, &Config{Addr: addr, Compression: "zstd", PollTimeout: 200 * time.Millisecond})
		receiver := newBus(t, ctx, &Config{Addr: addr, PollTimeout: 200 * time.Millisecond})

		received := make(chan *message.Message, 2)
		_, err := receiver.Subscribe("orders", func(msg *message.Message) { received <- msg })
		require.NoError(t, err)

		require.NoError(t, sender.Send("orders", "order-1"))
		msg := receive(t, received)
		assert.True(t, msg.IsSend())
		assert.Equal(t, message.String("order-1"), msg.Body())

		require.NoError(t, sender.Stop(ctx))
		require.NoError(t, receiver.Stop(ctx))
	})
	t.Run("With publish between buses", func(t *testing.T) {
		first := newBus(t, ctx, &Config{Addr: addr, PollTimeout: 200 * time.Millisecond})
		second := newBus(t, ctx, &Config{Addr: addr, Compression: "br", PollTimeout: 200 * time.Millisecond})

		local := make(chan *message.Message, 4)
		remote := make(chan *message.Message, 4)
		_, err := first.Subscribe("news", func(msg *message.Message) { local <- msg })
		require.NoError(t, err)
		_, err = second.Subscribe("news", func(msg *message.Message) { remote <- msg })
		require.NoError(t, err)
		waitSubscribers(t, addr, "news", 2)

		require.NoError(t, first.Publish("news", true))
		assert.Equal(t, message.Bool(true), receive(t, local).Body())
		msg := receive(t, remote)
		assert.False(t, msg.IsSend())
		assert.Equal(t, message.Bool(true), msg.Body())

		select {
		case <-local:
			t.Fatal("publisher received its own frame")
		case <-time.After(200 * time.Millisecond):
		}

		require.NoError(t, first.Stop(ctx))
		require.NoError(t, second.Stop(ctx))
	})
	t.Run("With reply between buses", func(t *testing.T) {
		requester := newBus(t, ctx, &Config{Addr: addr, PollTimeout: 200 * time.Millisecond})
		responder := newBus(t, ctx, &Config{Addr: addr, PollTimeout: 200 * time.Millisecond})

		_, err := responder.Subscribe("echo", func(msg *message.Message) {
			_ = responder.Reply(msg, msg.Body())
		})
		require.NoError(t, err)

		outcome := make(chan error, 1)
		replies := make(chan *message.Message, 1)
		err = requester.SendWithAck("echo", "ping", 5*time.Second, func(reply *message.Message, err error) {
			if err == nil {
				replies <- reply
			}
			outcome <- err
		})
		require.NoError(t, err)

		select {
		case err := <-outcome:
			require.NoError(t, err)
			assert.Equal(t, message.String("ping"), (<-replies).Body())
		case <-time.After(6 * time.Second):
			t.Fatal("no reply received")
		}

		require.NoError(t, requester.Stop(ctx))
		require.NoError(t, responder.Stop(ctx))
	})
	t.Run("With echo dropped", func(t *testing.T) {
		transport := New(&Config{Addr: addr, PollTimeout: 200 * time.Millisecond}, WithLogger(log.DiscardLogger))
		require.NoError(t, transport.Connect(ctx))

		frames := make(chan []byte, 1)
		release, err := transport.Subscribe("loopback", func(frame []byte) { frames <- frame })
		require.NoError(t, err)
		waitSubscribers(t, addr, "loopback", 1)

		require.NoError(t, transport.Publish(ctx, "loopback", []byte("self")))
		select {
		case <-frames:
			t.Fatal("transport received its own frame")
		case <-time.After(200 * time.Millisecond):
		}

		// frames from another node carry a different id
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		data, err := compression.Compress(compression.None, []byte("peer"))
		require.NoError(t, err)
		envelope := append(make([]byte, nodeIDSize), data...)
		require.NoError(t, client.Publish(ctx, transport.channel("loopback"), envelope).Err())
		select {
		case frame := <-frames:
			assert.Equal(t, []byte("peer"), frame)
		case <-time.After(5 * time.Second):
			t.Fatal("no frame received")
		}

		_, err = transport.Subscribe("loopback", func([]byte) {})
		require.Error(t, err)

		require.NoError(t, release())
		require.NoError(t, release())
		require.NoError(t, transport.Close(ctx))
		require.NoError(t, transport.Close(ctx))
	})
}
