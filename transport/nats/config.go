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

package nats

import (
	"time"

	"github.com/tochemey/gobus/internal/compression"
	"github.com/tochemey/gobus/internal/validation"
)

const (
	// DefaultSubjectPrefix is the first token of every subject used by the transport
	DefaultSubjectPrefix = "gobus"
	// DefaultConnectTimeout bounds a single connection attempt
	DefaultConnectTimeout = 2 * time.Second
)

// Config represents the NATS transport configuration
type Config struct {
	// Server defines the nats server in the format nats://host:port
	Server string
	// SubjectPrefix is prepended to every subject. Buses sharing frames must use the same prefix.
	SubjectPrefix string
	// Name is the connection name shown by the server
	Name string
	// Compression is the algorithm applied to outgoing frames: none, zstd or br.
	// Incoming frames are decoded whatever algorithm the sender used.
	Compression string
	// ConnectTimeout bounds a single connection attempt
	ConnectTimeout time.Duration
}

// Validate checks whether the given configuration is valid
func (x Config) Validate() error {
	_, err := compression.Parse(x.Compression)
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("Server", x.Server)).
		AddValidator(validation.NewTCPAddressValidator(x.Server)).
		AddAssertion(err == nil, "the [Compression] value must be one of none, zstd or br").
		AddAssertion(x.ConnectTimeout >= 0, "the [ConnectTimeout] value must not be negative")
	if x.SubjectPrefix != "" {
		chain.AddValidator(validation.NewTokenValidator("SubjectPrefix", x.SubjectPrefix))
	}
	return chain.Validate()
}

func (x *Config) sanitize() {
	if x.SubjectPrefix == "" {
		x.SubjectPrefix = DefaultSubjectPrefix
	}
	if x.ConnectTimeout <= 0 {
		x.ConnectTimeout = DefaultConnectTimeout
	}
}
