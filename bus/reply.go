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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tochemey/gobus/message"
)

// pendingReply tracks the outcome of one acknowledged send
type pendingReply struct {
	bus          *EventBus
	address      string
	replyAddress string
	onReply      ReplyHandler
	reg          *registration

	once  sync.Once
	mu    sync.Mutex
	timer *time.Timer
}

func newPendingReply(bus *EventBus, address, replyAddress string, onReply ReplyHandler) *pendingReply {
	pending := &pendingReply{
		bus:          bus,
		address:      address,
		replyAddress: replyAddress,
		onReply:      onReply,
	}
	pending.reg = newRegistration(bus, replyAddress, pending.onMessage)
	return pending
}

func (p *pendingReply) arm(timeout time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = time.AfterFunc(timeout, func() {
		p.complete(nil, message.NewReplyFailureError(
			message.FailureTimeout,
			-1,
			fmt.Sprintf("timed out after %s waiting for a reply from address %s", timeout, p.address)),
		)
	})
}

func (p *pendingReply) onMessage(msg *message.Message) {
	if failure, ok := msg.Body().(message.ReplyFailure); ok {
		p.complete(nil, &message.ReplyFailureError{Failure: failure})
		return
	}
	p.complete(msg, nil)
}

// complete reports the outcome once and releases the reply address
func (p *pendingReply) complete(reply *message.Message, err error) {
	p.once.Do(func() {
		p.release()

		if err != nil {
			kind := "Closed"
			var failure *message.ReplyFailureError
			if errors.As(err, &failure) {
				kind = failure.Failure.Kind.String()
			}
			p.bus.metric.ReplyFailed(p.bus.ctx, p.address, kind)
		}

		defer func() {
			if r := recover(); r != nil {
				p.bus.logger.Errorf("reply handler of address=(%s) panicked: %v", p.address, r)
			}
		}()
		p.onReply(reply, err)
	})
}

// cancel releases the reply address without reporting any outcome
func (p *pendingReply) cancel() {
	p.once.Do(p.release)
}

func (p *pendingReply) release() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	p.bus.replies.Delete(p.replyAddress)
	if err := p.reg.Unsubscribe(); err != nil {
		p.bus.logger.Warnf("failed to release reply address=(%s): %v", p.replyAddress, err)
	}
}
