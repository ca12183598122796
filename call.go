// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"context"
	"io"
	"iter"
	"sync"
)

// Item is one result produced by a call.
type Item struct {
	raw   RawValue
	codec Codec
}

// Raw returns the encoded item.
func (it Item) Raw() RawValue {
	return it.raw
}

// Decode decodes the item into v.
func (it Item) Decode(v any) error {
	return it.codec.Unmarshal(it.raw, v)
}

// Call is the pull iterator of one method invocation. It is owned by the
// goroutine which opened it.
type Call struct {
	ch     *Channel
	id     uint64
	method string

	mu     sync.Mutex
	queue  []RawValue
	end    error
	closed bool
	notify chan struct{}
}

func newCall(ch *Channel, id uint64, method string) *Call {
	return &Call{
		ch:     ch,
		id:     id,
		method: method,
		notify: make(chan struct{}, 1),
	}
}

func (c *Call) ID() uint64 {
	return c.id
}

func (c *Call) Method() string {
	return c.method
}

func (c *Call) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// deliver queues an item or records the end of the stream, it never blocks.
func (c *Call) deliver(r InboundReply) {
	c.mu.Lock()
	if c.end == nil {
		switch {
		case r.Err != "":
			c.end = &RemoteError{Endpoint: c.ch.name, Method: c.method, ID: c.id, Message: r.Err}
		case r.Done:
			c.end = io.EOF
		default:
			c.queue = append(c.queue, r.Item)
		}
	}
	c.mu.Unlock()
	c.signal()
}

func (c *Call) fail(err error) {
	c.mu.Lock()
	if c.end == nil {
		c.end = err
	}
	c.mu.Unlock()
	c.signal()
}

// Next returns the next item of the stream.
//
// It returns io.EOF once the server completed the stream or the call was
// closed, a *RemoteError when the server failed the stream and a
// *ConnectionError when the connection was lost. Items received before the
// end are returned first. If ctx is done while waiting, ctx.Err() is
// returned and the call stays open.
func (c *Call) Next(ctx context.Context) (Item, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			raw := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return Item{raw: raw, codec: c.ch.cfg.Codec}, nil
		}
		end := c.end
		c.mu.Unlock()

		if end != nil {
			return Item{}, end
		}

		select {
		case <-c.notify:
		case <-ctx.Done():
			return Item{}, ctx.Err()
		}
	}
}

// Close cancels the call: the dispatch entry is released, the server is
// asked to stop the stream and pending items are discarded. Next returns
// io.EOF afterwards, or the error which had already ended the call.
func (c *Call) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.queue = nil
	if c.end == nil {
		c.end = io.EOF
	}
	c.mu.Unlock()
	c.signal()

	c.ch.cancelCall(c.id)
	return nil
}

// All returns an iterator over the remaining items. The call is closed
// when the loop stops early or fails.
func (c *Call) All(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for {
			it, err := c.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				c.Close()
				yield(Item{}, err)
				return
			}
			if !yield(it, nil) {
				c.Close()
				return
			}
		}
	}
}
