// Copyright 2019 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushserver

import (
	"context"
	"fmt"
	"sort"

	"github.com/someonegg/pushmux"
)

// Emitter sends the items of one call.
type Emitter interface {
	// Emit queues item for sending. It fails once ctx is done, which
	// includes the client cancelling the call.
	Emit(ctx context.Context, item any) error
}

// MethodFunc produces the stream of one call. Returning nil completes the
// stream, returning an error fails it.
type MethodFunc func(ctx context.Context, args Args, out Emitter) error

// Args are the positional arguments of a call, still encoded.
type Args struct {
	codec pushmux.Codec
	raw   []pushmux.RawValue
}

func (a Args) Len() int {
	return len(a.raw)
}

// Decode decodes argument i into v.
func (a Args) Decode(i int, v any) error {
	if i < 0 || i >= len(a.raw) {
		return fmt.Errorf("argument %d out of range, got %d arguments", i, len(a.raw))
	}
	if err := a.codec.Unmarshal(a.raw[i], v); err != nil {
		return fmt.Errorf("argument %d: %w", i, err)
	}
	return nil
}

// Bind decodes all arguments, in order, into vs. The number of arguments
// must match.
func (a Args) Bind(vs ...any) error {
	if len(vs) != len(a.raw) {
		return fmt.Errorf("want %d arguments, got %d", len(vs), len(a.raw))
	}
	for i, v := range vs {
		if err := a.Decode(i, v); err != nil {
			return err
		}
	}
	return nil
}

// Endpoint is a named set of methods. Methods must be added before the
// endpoint is registered with a server.
type Endpoint struct {
	name    string
	methods map[string]MethodFunc
}

func NewEndpoint(name string) *Endpoint {
	return &Endpoint{
		name:    name,
		methods: make(map[string]MethodFunc),
	}
}

// Handle adds or replaces method, it returns e for chaining.
func (e *Endpoint) Handle(method string, fn MethodFunc) *Endpoint {
	e.methods[method] = fn
	return e
}

func (e *Endpoint) Name() string {
	return e.name
}

// Methods returns the sorted method names.
func (e *Endpoint) Methods() []string {
	names := make([]string, 0, len(e.methods))
	for name := range e.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Endpoint) method(name string) (MethodFunc, bool) {
	fn, ok := e.methods[name]
	return fn, ok
}
