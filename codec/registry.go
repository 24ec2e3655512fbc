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

package codec

import (
	gerrors "github.com/tochemey/gobus/errors"
	"github.com/tochemey/gobus/internal/xsync"
)

// Registry maps type names to codecs.
//
// A Registry is created once and shared by reference with every serializer
// that needs it. It is safe for concurrent registration and lookup.
type Registry struct {
	codecs *xsync.Map[string, Codec]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{codecs: xsync.NewMap[string, Codec]()}
}

// Register binds codec to name. A codec already registered under name is
// replaced.
func (r *Registry) Register(name string, codec Codec) error {
	if name == "" || codec == nil {
		return gerrors.ErrInvalidCodec
	}
	r.codecs.Set(name, codec)
	return nil
}

// RegisterFor binds codec to the type name of sample, as computed by NameOf.
func (r *Registry) RegisterFor(sample any, codec Codec) error {
	return r.Register(NameOf(sample), codec)
}

// Deregister removes the codec registered under name
func (r *Registry) Deregister(name string) {
	r.codecs.Delete(name)
}

// Lookup returns the codec registered under exactly name
func (r *Registry) Lookup(name string) (Codec, bool) {
	return r.codecs.Get(name)
}

// Names returns the registered names in ascending order
func (r *Registry) Names() []string {
	return xsync.SortedKeys(r.codecs)
}
