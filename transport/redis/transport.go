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

// Package redis carries event bus frames over Redis.
//
// Published frames go through PUBLISH on <prefix>:publish:<address>, wrapped
// with the id of the publishing node so it drops its own echoes.
// Point-to-point frames are pushed on the list <prefix>:send:<address>;
// every subscribed node pops from it so each frame is consumed once.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/gobus/bus"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/internal/compression"
	"github.com/tochemey/gobus/internal/validation"
	"github.com/tochemey/gobus/log"
)

// nodeIDSize is the length of the envelope header of published frames
const nodeIDSize = 16

// subscription is the state of one subscribed address
type subscription struct {
	channel string
	handler func(frame []byte)
	cancel  context.CancelFunc
}

// Transport implements bus.Transport with Redis
type Transport struct {
	config    *Config
	algorithm compression.Algorithm
	logger    log.Logger
	nodeID    uuid.UUID

	mu            sync.RWMutex
	client        *redis.Client
	pubsub        *redis.PubSub
	subscriptions map[string]*subscription
	group         *errgroup.Group
	ctx           context.Context
	cancel        context.CancelFunc
	connected     *atomic.Bool
}

// enforce compilation error
var _ bus.Transport = (*Transport)(nil)

// New creates a Redis transport. The connection is opened by Connect.
func New(config *Config, opts ...Option) *Transport {
	transport := &Transport{
		config:        config,
		logger:        log.DefaultLogger,
		nodeID:        uuid.New(),
		subscriptions: make(map[string]*subscription),
		connected:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(transport)
	}
	return transport
}

// Connect validates the configuration, connects to the server and starts
// dispatching published frames
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected.Load() {
		return nil
	}

	if err := t.config.Validate(); err != nil {
		return err
	}
	t.config.sanitize()
	t.algorithm, _ = compression.Parse(t.config.Compression)

	client := redis.NewClient(&redis.Options{
		Addr:     t.config.Addr,
		Password: t.config.Password,
		DB:       t.config.DB,
	})

	const maxRetries = 5
	retrier := retry.NewRetrier(maxRetries, 100*time.Millisecond, 2*time.Second)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis server=(%s): %w", t.config.Addr, err)
	}

	t.client = client
	t.pubsub = client.Subscribe(ctx)
	t.ctx, t.cancel = context.WithCancel(context.WithoutCancel(ctx))
	t.group, t.ctx = errgroup.WithContext(t.ctx)

	messages := t.pubsub.Channel()
	t.group.Go(func() error {
		for msg := range messages {
			t.dispatch(msg)
		}
		return nil
	})

	t.connected.Store(true)
	t.logger.Debugf("redis transport connected to server=(%s)", t.config.Addr)
	return nil
}

// Send pushes frame on the list of address. One subscribed node pops it.
func (t *Transport) Send(ctx context.Context, address string, frame []byte) error {
	client, err := t.connection()
	if err != nil {
		return err
	}

	data, err := compression.Compress(t.algorithm, frame)
	if err != nil {
		return err
	}
	return client.RPush(ctx, t.listKey(address), data).Err()
}

// Publish hands frame to every other node subscribed to address
func (t *Transport) Publish(ctx context.Context, address string, frame []byte) error {
	client, err := t.connection()
	if err != nil {
		return err
	}

	data, err := compression.Compress(t.algorithm, frame)
	if err != nil {
		return err
	}

	envelope := make([]byte, 0, nodeIDSize+len(data))
	envelope = append(envelope, t.nodeID[:]...)
	envelope = append(envelope, data...)
	return client.Publish(ctx, t.channel(address), envelope).Err()
}

// Subscribe routes the frames sent or published to address to handler
func (t *Transport) Subscribe(address string, handler func(frame []byte)) (func() error, error) {
	if err := validation.NewTokenValidator("address", address).Validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected.Load() {
		return nil, gerrors.ErrTransportNotConnected
	}

	channel := t.channel(address)
	if _, ok := t.subscriptions[channel]; ok {
		return nil, fmt.Errorf("address=(%s) is already subscribed", address)
	}

	if err := t.pubsub.Subscribe(t.ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to subscribe to address=(%s): %w", address, err)
	}

	ctx, cancel := context.WithCancel(t.ctx)
	sub := &subscription{
		channel: channel,
		handler: handler,
		cancel:  cancel,
	}
	t.subscriptions[channel] = sub

	key := t.listKey(address)
	t.group.Go(func() error {
		t.poll(ctx, key, handler)
		return nil
	})

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() { err = t.unsubscribe(sub) })
		return err
	}, nil
}

// Close stops every worker and closes the connection
func (t *Transport) Close(context.Context) error {
	t.mu.Lock()
	if !t.connected.CompareAndSwap(true, false) {
		t.mu.Unlock()
		return nil
	}

	t.cancel()
	for _, sub := range t.subscriptions {
		sub.cancel()
	}
	t.subscriptions = make(map[string]*subscription)
	// closing the pubsub ends the dispatcher
	err := t.pubsub.Close()
	t.mu.Unlock()

	err = multierr.Append(err, t.group.Wait())
	return multierr.Append(err, t.client.Close())
}

func (t *Transport) unsubscribe(sub *subscription) error {
	t.mu.Lock()
	if current, ok := t.subscriptions[sub.channel]; !ok || current != sub {
		t.mu.Unlock()
		return nil
	}
	delete(t.subscriptions, sub.channel)
	err := t.pubsub.Unsubscribe(t.ctx, sub.channel)
	t.mu.Unlock()

	// the worker may be the caller, it exits on its own
	sub.cancel()
	return err
}

// poll pops the frames sent to key until ctx is done
func (t *Transport) poll(ctx context.Context, key string, handler func(frame []byte)) {
	for ctx.Err() == nil {
		result, err := t.client.BLPop(ctx, t.config.PollTimeout, key).Result()
		switch {
		case err == nil:
		case errors.Is(err, redis.Nil):
			continue
		case ctx.Err() != nil:
			return
		default:
			t.logger.Warnf("failed to pop frames from key=(%s): %v", key, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.config.PollTimeout):
			}
			continue
		}

		// result holds the key followed by the value
		if ctx.Err() != nil {
			// hand the frame back to the other consumers
			if err := t.client.LPush(context.WithoutCancel(ctx), key, result[1]).Err(); err != nil {
				t.logger.Warnf("failed to requeue frame on key=(%s): %v", key, err)
			}
			return
		}

		frame, err := compression.Decompress([]byte(result[1]))
		if err != nil {
			t.logger.Errorf("failed to decompress frame popped from key=(%s): %v", key, err)
			continue
		}
		handler(frame)
	}
}

func (t *Transport) dispatch(msg *redis.Message) {
	payload := []byte(msg.Payload)
	if len(payload) < nodeIDSize {
		t.logger.Errorf("dropped malformed frame received on channel=(%s)", msg.Channel)
		return
	}

	var sender uuid.UUID
	copy(sender[:], payload[:nodeIDSize])
	if sender == t.nodeID {
		return
	}

	t.mu.RLock()
	sub, ok := t.subscriptions[msg.Channel]
	t.mu.RUnlock()
	if !ok {
		return
	}

	frame, err := compression.Decompress(payload[nodeIDSize:])
	if err != nil {
		t.logger.Errorf("failed to decompress frame received on channel=(%s): %v", msg.Channel, err)
		return
	}
	sub.handler(frame)
}

func (t *Transport) connection() (*redis.Client, error) {
	if !t.connected.Load() {
		return nil, gerrors.ErrTransportNotConnected
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.client == nil {
		return nil, gerrors.ErrTransportNotConnected
	}
	return t.client, nil
}

func (t *Transport) channel(address string) string {
	return t.config.KeyPrefix + ":publish:" + address
}

func (t *Transport) listKey(address string) string {
	return t.config.KeyPrefix + ":send:" + address
}
