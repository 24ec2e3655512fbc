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

// Package bus implements an address routed event bus.
//
// Handlers subscribe to an address. Send delivers a message to one handler
// of the address, picked round robin. Publish delivers it to every handler.
// SendWithAck attaches a one-shot reply address and reports exactly one
// outcome: the reply, a failure answered by the recipient, or a timeout.
//
// Local handlers never share mutable state with the sender or with each
// other: a custom body that is not shareable is copied for every delivery.
// When a Transport is configured, messages without a local handler are
// forwarded to it and frames received from it are delivered locally.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/gobus/codec"
	gerrors "github.com/tochemey/gobus/errors"
	imetric "github.com/tochemey/gobus/internal/metric"
	"github.com/tochemey/gobus/internal/xsync"
	"github.com/tochemey/gobus/log"
	"github.com/tochemey/gobus/message"
)

// replyPrefix starts every generated reply address
const replyPrefix = "__gobus.reply."

// Handler receives the messages of an address
type Handler func(msg *message.Message)

// ReplyHandler receives the outcome of an acknowledged send: either the
// reply message or an error, never both.
type ReplyHandler func(reply *message.Message, err error)

// EventBus routes messages to the handlers subscribed to their address.
// It is safe for concurrent use.
type EventBus struct {
	logger         log.Logger
	registry       *codec.Registry
	transport      Transport
	defaultTimeout time.Duration
	meterProvider  metric.MeterProvider

	serializer *message.Serializer
	metric     *imetric.BusMetric
	ctx        context.Context

	mu        sync.RWMutex
	addresses map[string]*handlers
	replies   *xsync.Map[string, *pendingReply]

	started *atomic.Bool
	stopped *atomic.Bool
}

// handlers are the registrations of one address
type handlers struct {
	registrations []*registration
	cursor        *atomic.Uint32
	release       func() error
}

// New creates an EventBus. Call Start before use.
func New(opts ...Option) (*EventBus, error) {
	bus := &EventBus{
		logger:         log.DefaultLogger,
		defaultTimeout: DefaultTimeout,
		ctx:            context.Background(),
		addresses:      make(map[string]*handlers),
		replies:        xsync.NewMap[string, *pendingReply](),
		started:        atomic.NewBool(false),
		stopped:        atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(bus)
	}

	if bus.registry == nil {
		bus.registry = codec.NewRegistry()
	}
	bus.serializer = message.NewSerializer(bus.registry)

	instruments, err := imetric.NewBusMetric(imetric.Meter(bus.meterProvider))
	if err != nil {
		return nil, fmt.Errorf("failed to create bus metrics: %w", err)
	}
	bus.metric = instruments
	return bus, nil
}

// Start connects the transport, if any, and opens the bus
func (b *EventBus) Start(ctx context.Context) error {
	if b.stopped.Load() {
		return gerrors.ErrBusClosed
	}

	if b.started.Load() {
		return nil
	}

	if b.transport != nil {
		if err := b.transport.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect transport: %w", err)
		}
	}

	b.ctx = context.WithoutCancel(ctx)
	b.started.Store(true)
	b.logger.Debug("event bus started")
	return nil
}

// Stop closes the bus. Pending acknowledged sends complete with ErrBusClosed,
// every subscription is released and the transport is closed.
func (b *EventBus) Stop(ctx context.Context) error {
	if !b.started.Load() {
		return gerrors.ErrBusNotStarted
	}

	if !b.stopped.CompareAndSwap(false, true) {
		return nil
	}

	var pending []*pendingReply
	b.replies.Range(func(_ string, p *pendingReply) {
		pending = append(pending, p)
	})
	for _, p := range pending {
		p.complete(nil, gerrors.ErrBusClosed)
	}

	b.mu.Lock()
	releases := make([]func() error, 0, len(b.addresses))
	for _, group := range b.addresses {
		for _, reg := range group.registrations {
			reg.active.Store(false)
		}
		if group.release != nil {
			releases = append(releases, group.release)
		}
	}
	b.addresses = make(map[string]*handlers)
	b.mu.Unlock()

	var err error
	for _, release := range releases {
		err = multierr.Append(err, release())
	}

	if b.transport != nil {
		err = multierr.Append(err, b.transport.Close(ctx))
	}

	b.logger.Debug("event bus stopped")
	return err
}

// Serializer returns the serializer of the bus
func (b *EventBus) Serializer() *message.Serializer {
	return b.serializer
}

// HandlerCount returns the number of local handlers of address
func (b *EventBus) HandlerCount(address string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if group, ok := b.addresses[address]; ok {
		return len(group.registrations)
	}
	return 0
}

// Subscribe registers handler on address
func (b *EventBus) Subscribe(address string, handler Handler) (Subscription, error) {
	if err := b.checkState(); err != nil {
		return nil, err
	}

	if address == "" {
		return nil, gerrors.NewErrInvalidAddress(address)
	}

	if handler == nil {
		return nil, gerrors.ErrInvalidHandler
	}

	reg := newRegistration(b, address, handler)
	if err := b.register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Send delivers body to one handler of address
func (b *EventBus) Send(address string, body any) error {
	return b.emit(address, true, body)
}

// Publish delivers body to every handler of address
func (b *EventBus) Publish(address string, body any) error {
	return b.emit(address, false, body)
}

// SendWithAck delivers body to one handler of address and waits for its
// reply asynchronously. onReply is called exactly once with the reply, a
// *message.ReplyFailureError, or ErrBusClosed when the bus stops first.
// A timeout of zero or less uses the default timeout.
//
// Errors preventing the send, such as an unsupported body, are returned
// and onReply is not called.
func (b *EventBus) SendWithAck(address string, body any, timeout time.Duration, onReply ReplyHandler) error {
	if err := b.checkState(); err != nil {
		return err
	}

	if onReply == nil {
		return gerrors.ErrInvalidHandler
	}

	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	replyAddress := replyPrefix + uuid.NewString()
	msg, err := b.serializer.Encode(address, true, replyAddress, body)
	if err != nil {
		return err
	}

	pending := newPendingReply(b, address, replyAddress, onReply)
	if err := b.register(pending.reg); err != nil {
		return err
	}
	b.replies.Set(replyAddress, pending)
	pending.arm(timeout)

	delivered, err := b.route(msg)
	if err != nil {
		pending.cancel()
		return err
	}

	if !delivered {
		pending.complete(nil, message.NewReplyFailureError(
			message.FailureNoHandlers,
			-1,
			fmt.Sprintf("no handlers for address %s", address)),
		)
	}
	return nil
}

// Reply answers msg. It does nothing when the sender expects no reply.
func (b *EventBus) Reply(msg *message.Message, body any) error {
	replyAddress, ok := msg.ReplyAddress()
	if !ok {
		return nil
	}
	return b.emit(replyAddress, true, body)
}

// Fail answers msg with a failure carrying code and reason
func (b *EventBus) Fail(msg *message.Message, code int32, reason string) error {
	return b.Reply(msg, message.ReplyFailure{
		Kind:   message.FailureRecipient,
		Code:   code,
		Reason: reason,
	})
}

func (b *EventBus) checkState() error {
	if b.stopped.Load() {
		return gerrors.ErrBusClosed
	}
	if !b.started.Load() {
		return gerrors.ErrBusNotStarted
	}
	return nil
}

func (b *EventBus) emit(address string, send bool, body any) error {
	if err := b.checkState(); err != nil {
		return err
	}

	msg, err := b.serializer.Encode(address, send, "", body)
	if err != nil {
		return err
	}

	_, err = b.route(msg)
	return err
}

// route delivers msg locally or forwards it to the transport.
// It reports false when nobody could take the message.
func (b *EventBus) route(msg *message.Message) (bool, error) {
	address := msg.Address()
	if msg.IsSend() {
		b.metric.Sent(b.ctx, address)
	} else {
		b.metric.Published(b.ctx, address)
	}

	regs, cursor := b.lookup(address)
	if len(regs) == 0 {
		if b.transport != nil {
			return true, b.forward(msg)
		}

		b.metric.Undelivered(b.ctx, address)
		b.logger.Debugf("no handlers for address=(%s), message dropped", address)
		return false, nil
	}

	if err := b.deliver(msg, regs, cursor); err != nil {
		return false, err
	}

	if !msg.IsSend() && b.transport != nil {
		return true, b.forward(msg)
	}
	return true, nil
}

// deliver hands msg to the local handlers in regs. No handler receives a
// custom body the sender can still mutate.
func (b *EventBus) deliver(msg *message.Message, regs []*registration, cursor *atomic.Uint32) error {
	if msg.IsSend() {
		isolated, err := msg.Isolate()
		if err != nil {
			return err
		}

		index := (cursor.Inc() - 1) % uint32(len(regs))
		b.invoke(regs[index], isolated)
		return nil
	}

	if len(regs) > 1 {
		if err := msg.CheckCopyable(); err != nil {
			return err
		}
	}

	deliveries := make([]*message.Message, len(regs))
	for i := range regs {
		var (
			delivery *message.Message
			err      error
		)

		if i == 0 {
			delivery, err = msg.Isolate()
		} else {
			delivery, err = msg.Copy()
		}

		if err != nil {
			return err
		}
		deliveries[i] = delivery
	}

	for i, reg := range regs {
		b.invoke(reg, deliveries[i])
	}
	return nil
}

func (b *EventBus) invoke(reg *registration, msg *message.Message) {
	if !reg.active.Load() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("handler of address=(%s) panicked: %v", reg.address, r)
		}
	}()

	b.metric.Received(b.ctx, reg.address)
	reg.handler(msg)
}

func (b *EventBus) forward(msg *message.Message) error {
	frame, err := msg.Marshal()
	if err != nil {
		return err
	}

	if msg.IsSend() {
		err = b.transport.Send(b.ctx, msg.Address(), frame)
	} else {
		err = b.transport.Publish(b.ctx, msg.Address(), frame)
	}

	if err != nil {
		return gerrors.NewErrSendFailed(err)
	}
	return nil
}

// onFrame delivers a frame received from the transport to local handlers only
func (b *EventBus) onFrame(frame []byte) {
	if b.stopped.Load() {
		return
	}

	msg, err := b.serializer.Decode(frame)
	if err != nil {
		b.logger.Errorf("failed to decode inbound frame: %v", err)
		return
	}

	regs, cursor := b.lookup(msg.Address())
	if len(regs) == 0 {
		b.metric.Undelivered(b.ctx, msg.Address())
		b.logger.Debugf("no handlers for inbound address=(%s), message dropped", msg.Address())
		return
	}

	if err := b.deliver(msg, regs, cursor); err != nil {
		b.logger.Errorf("failed to deliver inbound message to address=(%s): %v", msg.Address(), err)
	}
}

func (b *EventBus) lookup(address string) ([]*registration, *atomic.Uint32) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	group, ok := b.addresses[address]
	if !ok {
		return nil, nil
	}
	return group.registrations, group.cursor
}

func (b *EventBus) register(reg *registration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped.Load() {
		return gerrors.ErrBusClosed
	}

	group, ok := b.addresses[reg.address]
	if !ok {
		group = &handlers{cursor: atomic.NewUint32(0)}
		if b.transport != nil {
			release, err := b.transport.Subscribe(reg.address, b.onFrame)
			if err != nil {
				return fmt.Errorf("failed to subscribe address=(%s) on transport: %w", reg.address, err)
			}
			group.release = release
		}
		b.addresses[reg.address] = group
	}

	group.registrations = append(group.registrations, reg)
	return nil
}

func (b *EventBus) unregister(reg *registration) error {
	b.mu.Lock()
	group, ok := b.addresses[reg.address]
	if !ok {
		b.mu.Unlock()
		return nil
	}

	// registrations are never mutated in place: readers hold snapshots
	remaining := make([]*registration, 0, len(group.registrations))
	for _, existing := range group.registrations {
		if existing.id != reg.id {
			remaining = append(remaining, existing)
		}
	}
	group.registrations = remaining

	var release func() error
	if len(remaining) == 0 {
		delete(b.addresses, reg.address)
		release = group.release
	}
	b.mu.Unlock()

	if release != nil {
		return release()
	}
	return nil
}
