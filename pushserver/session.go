// Copyright 2019 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushserver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/someonegg/pushmux"
)

// session serves one client connection.
type session struct {
	srv   *Server
	ep    *Endpoint
	codec pushmux.Codec
	log   *zap.Logger
	pump  *pushmux.Pump

	mu    sync.Mutex
	calls map[uint64]context.CancelFunc
}

// Process implements the pushmux.Handler interface.
func (s *session) Process(ctx context.Context, m pushmux.Message) {
	req, err := s.codec.DecodeRequest(m)
	if err != nil {
		s.srv.cfg.Metrics.FrameDropped(s.ep.Name(), pushmux.DropMalformed)
		s.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}

	if req.Cancel {
		s.cancel(req.ID)
		return
	}

	fn, ok := s.ep.method(req.Method)
	if !ok {
		s.log.Warn("unknown method", zap.String("method", req.Method), zap.Uint64("id", req.ID))
		s.reply(ctx, pushmux.Reply{ID: req.ID, Err: fmt.Sprintf("unknown method %q", req.Method)})
		return
	}

	callCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if _, dup := s.calls[req.ID]; dup {
		s.mu.Unlock()
		cancel()
		s.log.Warn("dropping request with a running id", zap.Uint64("id", req.ID))
		return
	}
	s.calls[req.ID] = cancel
	s.mu.Unlock()

	s.srv.workers.Go(func() { s.run(callCtx, req, fn) })
}

func (s *session) run(ctx context.Context, req pushmux.InboundRequest, fn MethodFunc) {
	metrics := s.srv.cfg.Metrics
	metrics.StreamStarted(s.ep.Name(), req.Method)

	err := s.invoke(ctx, req, fn)

	if !s.finish(req.ID) {
		// Cancelled by the client, the stream ends silently.
		metrics.StreamEnded(s.ep.Name(), req.Method, false)
		s.log.Debug("call cancelled", zap.String("method", req.Method), zap.Uint64("id", req.ID))
		return
	}

	if err != nil {
		metrics.StreamEnded(s.ep.Name(), req.Method, true)
		s.log.Info("call failed",
			zap.String("method", req.Method), zap.Uint64("id", req.ID), zap.Error(err))
		s.reply(ctx, pushmux.Reply{ID: req.ID, Err: err.Error()})
		return
	}

	metrics.StreamEnded(s.ep.Name(), req.Method, false)
	s.reply(ctx, pushmux.Reply{ID: req.ID, Done: true})
}

func (s *session) invoke(ctx context.Context, req pushmux.InboundRequest, fn MethodFunc) (err error) {
	defer func() {
		if e := recover(); e != nil {
			s.log.Error("method panic",
				zap.String("method", req.Method), zap.Any("panic", e), zap.Stack("stack"))
			err = fmt.Errorf("panic: %v", e)
		}
	}()

	return fn(ctx, Args{codec: s.codec, raw: req.Args}, emitter{s: s, id: req.ID})
}

// finish removes the call, it returns false if the client cancelled it.
func (s *session) finish(id uint64) bool {
	s.mu.Lock()
	cancel, ok := s.calls[id]
	delete(s.calls, id)
	s.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

func (s *session) cancel(id uint64) {
	s.mu.Lock()
	cancel, ok := s.calls[id]
	delete(s.calls, id)
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// reply sends a terminal frame. ctx may already be done, a terminal
// frame is still queued unless the pump stopped.
func (s *session) reply(ctx context.Context, r pushmux.Reply) {
	m, err := s.codec.EncodeReply(r)
	if err != nil {
		s.log.Error("encoding reply failed", zap.Uint64("id", r.ID), zap.Error(err))
		return
	}
	if err := s.pump.Output(context.WithoutCancel(ctx), m); err != nil {
		s.log.Debug("sending reply failed", zap.Uint64("id", r.ID), zap.Error(err))
	}
}

type emitter struct {
	s  *session
	id uint64
}

func (e emitter) Emit(ctx context.Context, item any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := e.s.codec.EncodeReply(pushmux.Reply{ID: e.id, Item: item})
	if err != nil {
		return err
	}
	return e.s.pump.Output(ctx, m)
}
