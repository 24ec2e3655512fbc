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

package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/gobus/bus"
	"github.com/tochemey/gobus/eventloop"
	"github.com/tochemey/gobus/log"
	"github.com/tochemey/gobus/message"
)

// outgoing records a Send or SendWithAck call on the fake bus
type outgoing struct {
	address string
	body    any
	timeout time.Duration
	onReply bus.ReplyHandler
}

type fakeSubscription struct {
	address      string
	unsubscribed int
}

func (s *fakeSubscription) Address() string { return s.address }

func (s *fakeSubscription) Unsubscribe() error {
	s.unsubscribed++
	return nil
}

// fakeBus records every call and keeps acknowledgement callbacks for the test to complete
type fakeBus struct {
	serializer   *message.Serializer
	handlers     map[string]bus.Handler
	subscription *fakeSubscription
	sent         []outgoing
	replies      []any
	sendErr      error
	subscribeErr error
}

var _ Bus = (*fakeBus)(nil)

func newFakeBus() *fakeBus {
	return &fakeBus{
		serializer: message.NewSerializer(nil),
		handlers:   make(map[string]bus.Handler),
	}
}

func (f *fakeBus) Subscribe(address string, handler bus.Handler) (bus.Subscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.handlers[address] = handler
	f.subscription = &fakeSubscription{address: address}
	return f.subscription, nil
}

func (f *fakeBus) Send(address string, body any) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, outgoing{address: address, body: body})
	return nil
}

func (f *fakeBus) SendWithAck(address string, body any, timeout time.Duration, onReply bus.ReplyHandler) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, outgoing{address: address, body: body, timeout: timeout, onReply: onReply})
	return nil
}

func (f *fakeBus) Reply(_ *message.Message, body any) error {
	f.replies = append(f.replies, body)
	return nil
}

// deliver hands a message to the handler subscribed on address
func (f *fakeBus) deliver(t *testing.T, address string, body any, withReply bool) {
	t.Helper()
	replyAddress := ""
	if withReply {
		replyAddress = "reply." + address
	}
	msg, err := f.serializer.Encode(address, true, replyAddress, body)
	require.NoError(t, err)
	handler, ok := f.handlers[address]
	require.True(t, ok)
	handler(msg)
}

// ack completes the acknowledgement of the i-th outgoing frame
func (f *fakeBus) ack(i int, err error) {
	f.sent[i].onReply(nil, err)
}

// queued collects executor tasks until run is called
type queued struct {
	tasks []func()
}

func (q *queued) Execute(task func()) {
	q.tasks = append(q.tasks, task)
}

func (q *queued) run() {
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task()
	}
}

// direct runs tasks on the calling goroutine without being eventloop.Inline.
// The tests using it complete acknowledgements from the test goroutine.
type direct struct{}

func (direct) Execute(task func()) {
	task()
}

func newBusAndLoop(t *testing.T) (*bus.EventBus, *eventloop.Loop) {
	t.Helper()
	eventBus, err := bus.New(bus.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, eventBus.Start(context.Background()))

	loop := eventloop.NewLoop(eventloop.WithLogger(log.DiscardLogger))
	loop.Start()
	return eventBus, loop
}

func stopBusAndLoop(t *testing.T, eventBus *bus.EventBus, loop *eventloop.Loop) {
	t.Helper()
	require.NoError(t, eventBus.Stop(context.Background()))
	require.NoError(t, loop.Stop(context.Background()))
}

// onLoop runs task on loop and waits for it to return
func onLoop(loop *eventloop.Loop, task func()) {
	done := make(chan struct{})
	loop.Execute(func() {
		defer close(done)
		task()
	})
	<-done
}
