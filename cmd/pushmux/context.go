// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/someonegg/pushmux"
	"github.com/someonegg/pushmux/internal/config"
	"github.com/someonegg/pushmux/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	logCleanup func()
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if lvl := strings.TrimSpace(*c.logLevelFlag); lvl != "" {
			if _, err := logging.ParseLevel(lvl); err != nil {
				c.configErr = err
				return
			}
			cfg.Log.Level = lvl
		}
		logger, cleanup, err := logging.SetupLogger(cfg.Log)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
		c.logCleanup = cleanup
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

// close flushes the logger and releases its files.
func (c *commandContext) close() {
	if c.logCleanup != nil {
		c.logCleanup()
		c.logCleanup = nil
	}
}

// newRegistry builds a client registry from the client section.
func (c *commandContext) newRegistry() (*pushmux.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cc := cfg.Client

	codec, err := pushmux.CodecByName(cc.Codec)
	if err != nil {
		return nil, err
	}

	var dialer pushmux.Dialer
	if cc.TCPAddress != "" {
		dialer = &pushmux.NetconnDialer{
			Address: cc.TCPAddress,
			Timeout: cc.HandshakeTimeout(),
		}
	} else {
		dialer = &pushmux.WebsocketDialer{
			Origin:           cc.Origin,
			Binary:           codec.Binary(),
			HandshakeTimeout: cc.HandshakeTimeout(),
			ReadLimit:        cc.ReadLimit,
		}
	}

	rc := pushmux.Config{
		Dialer:         dialer,
		Codec:          codec,
		Logger:         c.log().Named("client"),
		WriteQueueSize: cc.WriteQueueSize,
	}
	if cc.DumpFrames {
		rc.FrameDump = os.Stderr
	}
	return pushmux.NewRegistry(rc)
}
