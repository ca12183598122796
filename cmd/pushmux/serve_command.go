// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/someonegg/pushmux"
	"github.com/someonegg/pushmux/internal/config"
	"github.com/someonegg/pushmux/internal/demo"
	"github.com/someonegg/pushmux/pushserver"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the countdown endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			srv, err := newServer(cfg.Server, logger, pushmux.NewMetrics(reg))
			if err != nil {
				return err
			}

			var hl, tl net.Listener
			if cfg.Server.Listen != "" {
				if hl, err = net.Listen("tcp", cfg.Server.Listen); err != nil {
					return err
				}
			}
			if cfg.Server.TCPListen != "" {
				if tl, err = net.Listen("tcp", cfg.Server.TCPListen); err != nil {
					if hl != nil {
						hl.Close()
					}
					return err
				}
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(signalCtx, hl, tl, srv, cfg.Server.MetricsPath, reg, logger)
		},
	}
}

func newServer(sc config.Server, logger *zap.Logger, metrics *pushmux.Metrics) (*pushserver.Server, error) {
	codec, err := pushmux.CodecByName(sc.Codec)
	if err != nil {
		return nil, err
	}
	srv := pushserver.NewServer(pushserver.Config{
		Codec:             codec,
		Logger:            logger.Named("server"),
		Metrics:           metrics,
		WriteQueueSize:    sc.WriteQueueSize,
		WorkerIdleTimeout: sc.WorkerIdleTimeout(),
	})
	if err := srv.Register(demo.CountdownEndpoint(sc.CountdownInterval())); err != nil {
		return nil, err
	}
	return srv, nil
}

// serve runs srv on the websocket listener hl and the TCP listener tl, either
// can be nil, until ctx is done.
func serve(ctx context.Context, hl, tl net.Listener, srv *pushserver.Server,
	metricsPath string, gatherer prometheus.Gatherer, logger *zap.Logger) error {

	g, ctx := errgroup.WithContext(ctx)

	if hl != nil {
		mux := http.NewServeMux()
		if metricsPath != "" {
			mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		}
		mux.Handle("/", srv)

		hs := &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		g.Go(func() error {
			logger.Info("serving websocket", zap.Stringer("addr", hl.Addr()))
			if err := hs.Serve(hl); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	if tl != nil {
		g.Go(func() error {
			logger.Info("serving tcp", zap.Stringer("addr", tl.Addr()))
			return srv.ServeNetconn(ctx, tl)
		})
	}

	err := g.Wait()
	logger.Info("server stopped", zap.Error(err))
	return err
}
