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
	"time"

	"github.com/tochemey/gobus/internal/compression"
	"github.com/tochemey/gobus/internal/validation"
)

const (
	// DefaultKeyPrefix is the first segment of every channel and list key
	DefaultKeyPrefix = "gobus"
	// DefaultPollTimeout bounds a single blocking pop of point-to-point frames
	DefaultPollTimeout = time.Second
)

// Config represents the Redis transport configuration
type Config struct {
	// Addr is the redis server address in the format host:port
	Addr string
	// Password is the optional server password
	Password string
	// DB is the database index
	DB int
	// KeyPrefix is prepended to every channel and list key
	KeyPrefix string
	// Compression is the algorithm applied to outgoing frames: none, zstd or br
	Compression string
	// PollTimeout bounds a single blocking pop. Releasing a subscription waits at most that long.
	PollTimeout time.Duration
}

// Validate checks whether the given configuration is valid
func (x Config) Validate() error {
	_, err := compression.Parse(x.Compression)
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("Addr", x.Addr)).
		AddValidator(validation.NewTCPAddressValidator(x.Addr)).
		AddAssertion(x.DB >= 0, "the [DB] value must not be negative").
		AddAssertion(err == nil, "the [Compression] value must be one of none, zstd or br").
		AddAssertion(x.PollTimeout >= 0, "the [PollTimeout] value must not be negative")
	if x.KeyPrefix != "" {
		chain.AddValidator(validation.NewTokenValidator("KeyPrefix", x.KeyPrefix))
	}
	return chain.Validate()
}

func (x *Config) sanitize() {
	if x.KeyPrefix == "" {
		x.KeyPrefix = DefaultKeyPrefix
	}
	if x.PollTimeout <= 0 {
		x.PollTimeout = DefaultPollTimeout
	}
}
