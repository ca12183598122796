// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"context"
	"io"
	"iter"
)

// Stream is a Call whose items decode to T.
type Stream[T any] struct {
	call *Call
}

// NewStream wraps c.
func NewStream[T any](c *Call) *Stream[T] {
	return &Stream[T]{call: c}
}

// OpenStream opens a call on r and wraps it, stubs are built on it.
func OpenStream[T any](ctx context.Context, r *Registry, endpoint, method string, args ...any) (*Stream[T], error) {
	c, err := r.OpenCall(ctx, endpoint, method, args...)
	if err != nil {
		return nil, err
	}
	return NewStream[T](c), nil
}

func (s *Stream[T]) Call() *Call {
	return s.call
}

// Next decodes the next item, see Call.Next for the errors.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var v T
	it, err := s.call.Next(ctx)
	if err != nil {
		return v, err
	}
	err = it.Decode(&v)
	return v, err
}

func (s *Stream[T]) Close() error {
	return s.call.Close()
}

func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for it, err := range s.call.All(ctx) {
			var v T
			if err == nil {
				err = it.Decode(&v)
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

// Collect reads the stream to its end.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var vs []T
	for {
		v, err := s.Next(ctx)
		if err == io.EOF {
			return vs, nil
		}
		if err != nil {
			s.Close()
			return vs, err
		}
		vs = append(vs, v)
	}
}
