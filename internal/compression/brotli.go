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

package compression

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
)

var brotliWriters = sync.Pool{
	New: func() any {
		return brotli.NewWriterLevel(nil, brotli.DefaultCompression)
	},
}

var brotliReaders = sync.Pool{
	New: func() any {
		return brotli.NewReader(nil)
	},
}

func brotliCompress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data)/2 + 1)
	out.WriteByte(byte(Brotli))

	writer := brotliWriters.Get().(*brotli.Writer)
	writer.Reset(&out)
	defer func() {
		writer.Reset(nil)
		brotliWriters.Put(writer)
	}()

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress brotli frame: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress brotli frame: %w", err)
	}
	return out.Bytes(), nil
}

func brotliDecompress(payload []byte) ([]byte, error) {
	reader := brotliReaders.Get().(*brotli.Reader)
	if err := reader.Reset(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("failed to decompress brotli frame: %w", err)
	}
	defer func() {
		_ = reader.Reset(nil)
		brotliReaders.Put(reader)
	}()

	out, err := io.ReadAll(io.LimitReader(reader, maxDecodedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress brotli frame: %w", err)
	}
	if len(out) > maxDecodedSize {
		return nil, fmt.Errorf("brotli frame exceeds %d bytes", maxDecodedSize)
	}
	return out, nil
}
