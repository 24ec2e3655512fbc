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

// Package nats carries event bus frames over NATS.
//
// Point-to-point frames go to <prefix>.send.<address> and are consumed by a
// queue group so exactly one subscribed node receives each of them.
// Published frames go to <prefix>.publish.<address> and reach every
// subscribed node. The connection is opened without echo so a node never
// receives its own frames.
package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/gobus/bus"
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/internal/compression"
	"github.com/tochemey/gobus/internal/validation"
	"github.com/tochemey/gobus/log"
)

// queueGroup is shared by every node consuming point-to-point frames
const queueGroup = "gobus"

// Transport implements bus.Transport with NATS
type Transport struct {
	config    *Config
	algorithm compression.Algorithm
	logger    log.Logger

	mu            sync.Mutex
	connection    *nats.Conn
	subscriptions mapset.Set[*nats.Subscription]
	connected     *atomic.Bool
}

// enforce compilation error
var _ bus.Transport = (*Transport)(nil)

// New creates a NATS transport. The connection is opened by Connect.
func New(config *Config, opts ...Option) *Transport {
	transport := &Transport{
		config:        config,
		logger:        log.DefaultLogger,
		subscriptions: mapset.NewThreadUnsafeSet[*nats.Subscription](),
		connected:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(transport)
	}
	return transport
}

// Connect validates the configuration and connects to the server.
// Connection attempts are retried with an exponential backoff.
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

	opts := nats.GetDefaultOptions()
	opts.Url = t.config.Server
	opts.Name = t.config.Name
	opts.NoEcho = true
	opts.Timeout = t.config.ConnectTimeout
	opts.ReconnectWait = 2 * time.Second
	opts.MaxReconnect = -1

	const maxRetries = 5
	var connection *nats.Conn
	retrier := retry.NewRetrier(maxRetries, 100*time.Millisecond, opts.ReconnectWait)
	err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		connection, err = opts.Connect()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to nats server=(%s): %w", t.config.Server, err)
	}

	t.connection = connection
	t.connected.Store(true)
	t.logger.Debugf("nats transport connected to server=(%s)", t.config.Server)
	return nil
}

// Send hands frame to one node subscribed to address
func (t *Transport) Send(_ context.Context, address string, frame []byte) error {
	return t.publish(t.sendSubject(address), frame)
}

// Publish hands frame to every node subscribed to address
func (t *Transport) Publish(_ context.Context, address string, frame []byte) error {
	return t.publish(t.publishSubject(address), frame)
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

	callback := func(msg *nats.Msg) {
		frame, err := compression.Decompress(msg.Data)
		if err != nil {
			t.logger.Errorf("failed to decompress frame received on subject=(%s): %v", msg.Subject, err)
			return
		}
		handler(frame)
	}

	sendSub, err := t.connection.QueueSubscribe(t.sendSubject(address), queueGroup, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to address=(%s): %w", address, err)
	}

	publishSub, err := t.connection.Subscribe(t.publishSubject(address), callback)
	if err != nil {
		_ = sendSub.Unsubscribe()
		return nil, fmt.Errorf("failed to subscribe to address=(%s): %w", address, err)
	}

	// make sure the server knows the interest before returning
	if err := t.connection.FlushTimeout(t.config.ConnectTimeout); err != nil {
		_ = sendSub.Unsubscribe()
		_ = publishSub.Unsubscribe()
		return nil, fmt.Errorf("failed to subscribe to address=(%s): %w", address, err)
	}

	t.subscriptions.Append(sendSub, publishSub)

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() { err = t.unsubscribe(sendSub, publishSub) })
		return err
	}, nil
}

// Close removes every subscription and closes the connection
func (t *Transport) Close(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected.CompareAndSwap(true, false) {
		return nil
	}

	var err error
	for _, subscription := range t.subscriptions.ToSlice() {
		if subscription.IsValid() {
			err = multierr.Append(err, subscription.Unsubscribe())
		}
	}
	t.subscriptions.Clear()

	err = multierr.Append(err, t.connection.Flush())
	t.connection.Close()
	t.connection = nil
	return err
}

func (t *Transport) unsubscribe(subscriptions ...*nats.Subscription) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	for _, subscription := range subscriptions {
		if !t.subscriptions.Contains(subscription) {
			continue
		}
		t.subscriptions.Remove(subscription)
		if subscription.IsValid() {
			err = multierr.Append(err, subscription.Unsubscribe())
		}
	}
	return err
}

func (t *Transport) publish(subject string, frame []byte) error {
	if !t.connected.Load() {
		return gerrors.ErrTransportNotConnected
	}

	data, err := compression.Compress(t.algorithm, frame)
	if err != nil {
		return err
	}

	t.mu.Lock()
	connection := t.connection
	t.mu.Unlock()
	if connection == nil {
		return gerrors.ErrTransportNotConnected
	}
	return connection.Publish(subject, data)
}

func (t *Transport) sendSubject(address string) string {
	return t.config.SubjectPrefix + ".send." + address
}

func (t *Transport) publishSubject(address string) string {
	return t.config.SubjectPrefix + ".publish." + address
}
