// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClient(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLog()
}

func validCodec(name string) bool {
	return name == "json" || name == "cbor"
}

func (c *Config) validateClient() error {
	if c.Client.TCPAddress == "" {
		if c.Client.Origin == "" {
			return errors.New("client.origin or client.tcp_address must be set")
		}
		u, err := url.Parse(c.Client.Origin)
		if err != nil {
			return fmt.Errorf("client.origin: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return fmt.Errorf("client.origin scheme %q is not supported", u.Scheme)
		}
	}
	if !validCodec(c.Client.Codec) {
		return fmt.Errorf("client.codec %q must be json or cbor", c.Client.Codec)
	}
	if c.Client.HandshakeTimeoutSeconds < 0 {
		return errors.New("client.handshake_timeout_seconds must not be negative")
	}
	if c.Client.WriteQueueSize < 0 {
		return errors.New("client.write_queue_size must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Listen == "" && c.Server.TCPListen == "" {
		return errors.New("server.listen or server.tcp_listen must be set")
	}
	if c.Server.MetricsPath != "" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return fmt.Errorf("server.metrics_path %q must start with /", c.Server.MetricsPath)
	}
	if !validCodec(c.Server.Codec) {
		return fmt.Errorf("server.codec %q must be json or cbor", c.Server.Codec)
	}
	if c.Server.WorkerIdleSeconds < 0 {
		return errors.New("server.worker_idle_seconds must not be negative")
	}
	if c.Server.CountdownIntervalMS < 0 {
		return errors.New("server.countdown_interval_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLog() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", c.Log.Format)
	}
	return nil
}
