// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/someonegg/gox/syncx"
	"go.uber.org/zap"
)

// State is the connection state of a Channel.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Channel multiplexes the calls to one endpoint over one connection.
//
// A Channel is created by a Registry and starts connecting immediately.
// It never reconnects: once failed, every call on it fails with the
// captured ConnectionError.
type Channel struct {
	name string
	cfg  *Config
	log  *zap.Logger

	readyD    syncx.DoneChan
	readyOnce sync.Once
	cancel    context.CancelFunc

	mu     sync.Mutex
	state  State
	err    error
	pump   *Pump
	nextID uint64
	calls  map[uint64]*Call
}

func newChannel(parent context.Context, name string, cfg *Config) *Channel {
	ctx, cancel := context.WithCancel(parent)
	c := &Channel{
		name: name,
		cfg:  cfg,
		log: cfg.Logger.With(
			zap.String("endpoint", name),
			zap.String("session", uuid.NewString()),
		),
		readyD: syncx.NewDoneChan(),
		cancel: cancel,
		calls:  make(map[uint64]*Call),
	}
	go c.connect(ctx)
	return c
}

func (c *Channel) Name() string {
	return c.name
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the captured ConnectionError of a failed channel.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Statistics returns the transport counters, zero before the channel opened.
func (c *Channel) Statistics() Statistics {
	c.mu.Lock()
	p := c.pump
	c.mu.Unlock()
	if p == nil {
		return Statistics{}
	}
	return p.Statistics()
}

// Outstanding returns the number of entries in the dispatch table.
func (c *Channel) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *Channel) setReady() {
	c.readyOnce.Do(c.readyD.SetDone)
}

func (c *Channel) connect(ctx context.Context) {
	c.log.Debug("connecting")

	rw, err := c.cfg.Dialer.Dial(ctx, c.name)
	if err != nil {
		c.fail(err)
		return
	}
	if c.cfg.FrameDump != nil {
		rw = &MessageDump{RW: rw, Dump: c.cfg.FrameDump}
	}

	p := NewPump(rw, c, c.cfg.WriteQueueSize)
	p.SetLogger(c.log)

	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		if sn, ok := rw.(StopNotifier); ok {
			sn.OnStop()
		}
		return
	}
	p.Start(ctx)
	c.pump = p
	c.state = StateOpen
	c.mu.Unlock()

	c.setReady()
	c.log.Info("channel open")

	go c.watch(p)
}

func (c *Channel) watch(p *Pump) {
	<-p.StopD()
	err := p.Error()
	switch {
	case err == nil:
		err = ErrChannelClosed
	case errors.Is(err, io.EOF):
		err = ErrConnectionLost
	}
	c.fail(err)
}

// fail moves the channel to the failed state and fails every outstanding
// call with the same ConnectionError.
func (c *Channel) fail(cause error) {
	err := &ConnectionError{Endpoint: c.name, Err: cause}

	c.mu.Lock()
	if c.state == StateFailed {
		c.mu.Unlock()
		return
	}
	c.state = StateFailed
	c.err = err
	calls := c.calls
	c.calls = make(map[uint64]*Call)
	p := c.pump
	c.mu.Unlock()

	c.setReady()
	c.cancel()
	if p != nil {
		p.Stop()
	}

	if errors.Is(cause, ErrChannelClosed) {
		c.log.Info("channel closed", zap.Int("outstanding", len(calls)))
	} else {
		c.cfg.Metrics.channelFailed(c.name)
		c.log.Warn("channel failed", zap.Error(cause), zap.Int("outstanding", len(calls)))
	}
	c.cfg.Metrics.callReleased(c.name, len(calls))

	for _, call := range calls {
		call.fail(err)
	}
}

// Close fails the channel and all of its outstanding calls with
// ErrChannelClosed.
func (c *Channel) Close() error {
	c.fail(ErrChannelClosed)
	return nil
}

// Open starts a call of method with args.
//
// Open blocks while the channel is connecting. It fails with the captured
// ConnectionError when the channel is failed, in which case nothing is sent.
func (c *Channel) Open(ctx context.Context, method string, args ...any) (*Call, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.mu.Unlock()

	select {
	case <-c.readyD:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m, err := c.cfg.Codec.EncodeRequest(Request{ID: id, Method: method, Args: args})
	if err != nil {
		return nil, fmt.Errorf("pushmux: encode %s call: %w", method, err)
	}

	call := newCall(c, id, method)

	// register before sending, a reply may arrive before Output returns.
	c.mu.Lock()
	if c.state != StateOpen {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.calls[id] = call
	p := c.pump
	c.mu.Unlock()
	c.cfg.Metrics.callOpened(c.name)

	if err := p.Output(ctx, m); err != nil {
		c.release(id)
		if errors.Is(err, ErrPumpStopped) {
			return nil, &ConnectionError{Endpoint: c.name, Err: err}
		}
		return nil, err
	}

	c.log.Debug("call opened", zap.Uint64("id", id), zap.String("method", method))
	return call, nil
}

// release removes a dispatch entry, it reports whether the entry existed.
func (c *Channel) release(id uint64) bool {
	c.mu.Lock()
	_, ok := c.calls[id]
	delete(c.calls, id)
	c.mu.Unlock()

	if ok {
		c.cfg.Metrics.callReleased(c.name, 1)
	}
	return ok
}

// cancelCall releases the entry of id and tells the server to stop the
// stream. Nothing is sent when the call already ended.
func (c *Channel) cancelCall(id uint64) {
	if !c.release(id) {
		return
	}

	c.mu.Lock()
	p := c.pump
	open := c.state == StateOpen
	c.mu.Unlock()
	if !open {
		return
	}

	m, err := c.cfg.Codec.EncodeCancel(id)
	if err != nil {
		c.log.Error("encode cancel frame", zap.Uint64("id", id), zap.Error(err))
		return
	}
	if !p.TryOutput(m) {
		go p.Output(context.Background(), m)
	}
	c.log.Debug("call cancelled", zap.Uint64("id", id))
}

// Process implements the Handler interface, it routes one inbound frame to
// its call. Frames which cannot be decoded or routed are logged and dropped
// without affecting any other call.
func (c *Channel) Process(ctx context.Context, m Message) {
	r, err := c.cfg.Codec.DecodeReply(m)
	if err != nil {
		c.cfg.Metrics.FrameDropped(c.name, DropMalformed)
		c.log.Warn("dropping malformed frame", zap.Error(err), zap.Int("size", len(m)))
		return
	}

	terminal := r.Terminal()

	c.mu.Lock()
	call := c.calls[r.ID]
	if call != nil && terminal {
		delete(c.calls, r.ID)
	}
	c.mu.Unlock()

	if call == nil {
		c.cfg.Metrics.FrameDropped(c.name, DropUnroutable)
		c.log.Info("no call for frame", zap.Uint64("id", r.ID))
		return
	}
	if terminal {
		c.cfg.Metrics.callReleased(c.name, 1)
	}

	call.deliver(r)
}
