// Copyright 2019 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/someonegg/pushmux"
)

const (
	DefaultWorkerIdleTimeout = 30 * time.Second

	// preambleTimeout bounds the wait for the endpoint name of a raw
	// connection.
	preambleTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// Codec defaults to JSON, it must match the clients' codec.
	Codec   pushmux.Codec
	Logger  *zap.Logger
	Metrics *pushmux.Metrics

	WriteQueueSize    int
	WorkerIdleTimeout time.Duration

	// Upgrader defaults to a websocket.Upgrader accepting any origin.
	Upgrader *websocket.Upgrader
	// ReadLimit limits the size of an inbound websocket message.
	ReadLimit int64
}

// Server serves registered endpoints over websocket and raw connections.
type Server struct {
	cfg     Config
	log     *zap.Logger
	workers *workerPool

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

// NewServer allocates and returns a new Server.
func NewServer(cfg Config) *Server {
	if cfg.Codec == nil {
		cfg.Codec = pushmux.JSON()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = pushmux.DefaultWriteQueueSize
	}
	if cfg.WorkerIdleTimeout <= 0 {
		cfg.WorkerIdleTimeout = DefaultWorkerIdleTimeout
	}
	if cfg.Upgrader == nil {
		cfg.Upgrader = &websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		}
	}
	return &Server{
		cfg:       cfg,
		log:       cfg.Logger,
		workers:   newWorkerPool(cfg.WorkerIdleTimeout),
		endpoints: make(map[string]*Endpoint),
	}
}

// Register makes ep reachable under its name.
func (s *Server) Register(ep *Endpoint) error {
	if ep.Name() == "" || strings.Contains(ep.Name(), "/") {
		return fmt.Errorf("pushserver: invalid endpoint name %q", ep.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[ep.Name()]; ok {
		return fmt.Errorf("pushserver: endpoint %q already registered", ep.Name())
	}
	s.endpoints[ep.Name()] = ep
	s.log.Info("endpoint registered",
		zap.String("endpoint", ep.Name()),
		zap.Strings("methods", ep.Methods()))
	return nil
}

func (s *Server) endpoint(name string) *Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoints[name]
}

// ServeHTTP upgrades requests for "/<endpoint>" to websocket sessions. The
// handler can be mounted under a prefix with http.StripPrefix.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	ep := s.endpoint(name)
	if ep == nil {
		http.NotFound(w, r)
		return
	}

	conn, err := s.cfg.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied.
		s.log.Debug("websocket upgrade failed",
			zap.String("endpoint", name), zap.Error(err))
		return
	}
	if s.cfg.ReadLimit > 0 {
		conn.SetReadLimit(s.cfg.ReadLimit)
	}

	s.ServeConn(r.Context(), pushmux.WebsocketMRW(conn, s.cfg.Codec.Binary()), ep)
}

// ServeNetconn accepts raw connections on l until ctx is done. The first
// message of a connection names its endpoint.
func (s *Server) ServeNetconn(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}
		go s.serveNetconn(ctx, conn)
	}
}

func (s *Server) serveNetconn(ctx context.Context, conn net.Conn) {
	rw := pushmux.NetconnMRW(conn)

	conn.SetReadDeadline(time.Now().Add(preambleTimeout))
	m, err := rw.ReadMessage()
	if err != nil {
		s.log.Debug("reading endpoint name failed",
			zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	ep := s.endpoint(string(m))
	if ep == nil {
		s.log.Warn("unknown endpoint",
			zap.String("endpoint", string(m)),
			zap.Stringer("remote", conn.RemoteAddr()))
		conn.Close()
		return
	}

	s.ServeConn(ctx, rw, ep)
}

// ServeConn runs a session of ep on rw. It returns when the connection is
// lost or ctx is done, with the error that stopped the session.
func (s *Server) ServeConn(ctx context.Context, rw pushmux.MessageReadWriter, ep *Endpoint) error {
	sess := &session{
		srv:   s,
		ep:    ep,
		codec: s.cfg.Codec,
		log: s.log.With(
			zap.String("endpoint", ep.Name()),
			zap.String("session", uuid.NewString())),
		calls: make(map[uint64]context.CancelFunc),
	}
	sess.pump = pushmux.NewPump(rw, sess, s.cfg.WriteQueueSize)
	sess.pump.SetLogger(sess.log)

	sess.log.Debug("session started")
	sess.pump.Start(ctx)
	<-sess.pump.StopD()

	err := sess.pump.Error()
	sess.log.Debug("session ended", zap.Error(err))
	return err
}
