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

// Package compression compresses transport frames.
//
// A compressed frame starts with one byte naming the algorithm, so a
// receiver decodes frames from peers configured with any algorithm.
package compression

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm identifies a compression algorithm on the wire
type Algorithm uint8

const (
	// None leaves frames as they are
	None Algorithm = iota
	// Zstd is Zstandard
	Zstd
	// Brotli is Brotli at its default level
	Brotli
)

// ErrUnknownAlgorithm is returned for an algorithm name or tag that is not supported
var ErrUnknownAlgorithm = errors.New("unknown compression algorithm")

// String returns the configuration name of the algorithm
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case Brotli:
		return "br"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Parse returns the algorithm for name. The empty name is None.
func Parse(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "br", "brotli":
		return Brotli, nil
	default:
		return None, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// Compress returns data compressed with algorithm, prefixed with its tag
func Compress(algorithm Algorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case None:
		out := make([]byte, 1, len(data)+1)
		out[0] = byte(None)
		return append(out, data...), nil
	case Zstd:
		return zstdCompress(data), nil
	case Brotli:
		return brotliCompress(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
}

// Decompress reverses Compress whatever algorithm the frame was compressed with
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, errors.New("empty compressed frame")
	}

	algorithm, payload := Algorithm(frame[0]), frame[1:]
	switch algorithm {
	case None:
		return payload, nil
	case Zstd:
		return zstdDecompress(payload)
	case Brotli:
		return brotliDecompress(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
}
