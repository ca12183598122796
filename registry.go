// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DefaultWriteQueueSize is the write queue size of a channel's pump when
// Config.WriteQueueSize is not positive.
const DefaultWriteQueueSize = 64

// Config configures a Registry.
type Config struct {
	// Dialer connects channels, required.
	Dialer Dialer
	// Codec defaults to JSON.
	Codec Codec
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics can be nil.
	Metrics *Metrics

	WriteQueueSize int

	// FrameDump receives a trace of every frame when not nil.
	FrameDump io.Writer
}

func (cfg Config) withDefaults() Config {
	if cfg.Codec == nil {
		cfg.Codec = JSON()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = DefaultWriteQueueSize
	}
	return cfg
}

// Registry owns one Channel per endpoint name. Channels live until the
// registry is closed.
type Registry struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	channels map[string]*Channel
	closed   bool
}

// NewRegistry allocates and returns a new Registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Dialer == nil {
		return nil, errors.New("pushmux: registry needs a dialer")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:      cfg.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		channels: make(map[string]*Channel),
	}, nil
}

// Channel returns the channel of endpoint, creating it and starting its
// connection on first use.
func (r *Registry) Channel(endpoint string) (*Channel, error) {
	if endpoint == "" {
		return nil, errors.New("pushmux: empty endpoint name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	c, ok := r.channels[endpoint]
	if !ok {
		c = newChannel(r.ctx, endpoint, &r.cfg)
		r.channels[endpoint] = c
	}
	return c, nil
}

// OpenCall starts a call of method on endpoint. It is the entry point used
// by generated stubs.
func (r *Registry) OpenCall(ctx context.Context, endpoint, method string, args ...any) (*Call, error) {
	c, err := r.Channel(endpoint)
	if err != nil {
		return nil, err
	}
	return c.Open(ctx, method, args...)
}

// Endpoints returns the sorted names of the endpoints with a channel.
func (r *Registry) Endpoints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every channel, outstanding calls fail with ErrChannelClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	channels := r.channels
	r.channels = make(map[string]*Channel)
	r.mu.Unlock()

	for _, c := range channels {
		c.Close()
	}
	r.cancel()
	return nil
}
