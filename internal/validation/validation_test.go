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

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Run("With no validators", func(t *testing.T) {
		assert.NoError(t, New().Validate())
	})
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewEmptyStringValidator("server", "")).
			AddAssertion(false, "timeout must be positive").
			Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "the [server] is required")
	})
	t.Run("With all errors", func(t *testing.T) {
		err := New(AllErrors()).
			AddValidator(NewEmptyStringValidator("server", " ")).
			AddAssertion(false, "timeout must be positive").
			AddAssertion(true, "never reported").
			Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "the [server] is required; timeout must be positive")
	})
}

func TestRules(t *testing.T) {
	t.Run("With empty string", func(t *testing.T) {
		assert.NoError(t, NewEmptyStringValidator("name", "node-1").Validate())
		assert.Error(t, NewEmptyStringValidator("name", "").Validate())
	})
	t.Run("With boolean", func(t *testing.T) {
		assert.NoError(t, NewBooleanValidator(true, "x").Validate())
		assert.EqualError(t, NewBooleanValidator(false, "x").Validate(), "x")
	})
	t.Run("With token", func(t *testing.T) {
		assert.NoError(t, NewTokenValidator("prefix", "gobus.events").Validate())
		assert.Error(t, NewTokenValidator("prefix", "go bus").Validate())
		assert.Error(t, NewTokenValidator("prefix", "gobus.*").Validate())
		assert.Error(t, NewTokenValidator("prefix", "gobus.>").Validate())
		assert.Error(t, NewTokenValidator("prefix", "").Validate())
	})
}

func TestTCPAddressValidator(t *testing.T) {
	valid := []string{"127.0.0.1:3222", "localhost:0", "nats://127.0.0.1:4222", "redis://cache:6379"}
	for _, address := range valid {
		assert.NoError(t, NewTCPAddressValidator(address).Validate(), address)
	}

	invalid := []string{"127.0.0.1:-1", "127.0.0.1:655387", ":3222", "127.0.0.1", "host:port", strings.Repeat(" ", 3)}
	for _, address := range invalid {
		assert.Error(t, NewTCPAddressValidator(address).Validate(), address)
	}
}
