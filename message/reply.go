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

package message

import (
	"fmt"

	gerrors "github.com/tochemey/gobus/errors"
)

// ReplyFailureError is the error handed to a reply handler when the
// recipient answered with a ReplyFailure body or when no reply could be
// delivered.
//
// It matches ErrSendTimeout for a timeout, ErrSendFailed and ErrNoHandlers
// when nobody was subscribed, and ErrSendFailed otherwise.
type ReplyFailureError struct {
	Failure ReplyFailure
}

// enforce compilation error
var _ error = (*ReplyFailureError)(nil)

// NewReplyFailureError creates a ReplyFailureError
func NewReplyFailureError(kind FailureKind, code int32, reason string) *ReplyFailureError {
	return &ReplyFailureError{Failure: ReplyFailure{Kind: kind, Code: code, Reason: reason}}
}

// Error implements error
func (e *ReplyFailureError) Error() string {
	return fmt.Sprintf("reply failure kind=(%s) code=(%d): %s", e.Failure.Kind, e.Failure.Code, e.Failure.Reason)
}

// Unwrap returns the sentinels matching the failure kind
func (e *ReplyFailureError) Unwrap() []error {
	switch e.Failure.Kind {
	case FailureTimeout:
		return []error{gerrors.ErrSendTimeout}
	case FailureNoHandlers:
		return []error{gerrors.ErrSendFailed, gerrors.ErrNoHandlers}
	default:
		return []error{gerrors.ErrSendFailed}
	}
}
