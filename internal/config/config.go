// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Client configures the registry used by the call commands.
type Client struct {
	// Origin is the http(s) or ws(s) URL endpoints are reached below.
	Origin string `toml:"origin"`
	// TCPAddress selects length prefixed TCP instead of websocket when set.
	TCPAddress              string `toml:"tcp_address"`
	Codec                   string `toml:"codec"`
	HandshakeTimeoutSeconds int    `toml:"handshake_timeout_seconds"`
	WriteQueueSize          int    `toml:"write_queue_size"`
	ReadLimit               int64  `toml:"read_limit"`
	// DumpFrames traces every frame to stderr.
	DumpFrames bool `toml:"dump_frames"`
}

// Server configures the serve command.
type Server struct {
	Listen              string `toml:"listen"`
	TCPListen           string `toml:"tcp_listen"`
	MetricsPath         string `toml:"metrics_path"`
	Codec               string `toml:"codec"`
	WriteQueueSize      int    `toml:"write_queue_size"`
	WorkerIdleSeconds   int    `toml:"worker_idle_seconds"`
	CountdownIntervalMS int    `toml:"countdown_interval_ms"`
}

// Rotation configures log file rotation.
type Rotation struct {
	Enable     bool   `toml:"enable"`
	Filename   string `toml:"filename"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level       string   `toml:"level"`
	Format      string   `toml:"format"`
	Outputs     []string `toml:"outputs"`
	Development bool     `toml:"development"`
	Rotation    Rotation `toml:"rotation"`
}

// Config is the whole configuration file.
type Config struct {
	Client Client    `toml:"client"`
	Server Server    `toml:"server"`
	Log    LogConfig `toml:"log"`
}

// Load parses and validates the file at path. A missing file is not an
// error when path is empty, the defaults are returned then. The second
// result reports whether a file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, false, err
	}
	if path != "" && !exists {
		return nil, false, fmt.Errorf("config file %s does not exist", resolved)
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		abs, err := filepath.Abs("pushmux.toml")
		if err != nil {
			return "", false, err
		}
		path = abs
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

func (c *Config) normalize() {
	c.Client.Origin = strings.TrimSpace(c.Client.Origin)
	c.Client.TCPAddress = strings.TrimSpace(c.Client.TCPAddress)
	c.Client.Codec = strings.ToLower(strings.TrimSpace(c.Client.Codec))
	c.Server.Codec = strings.ToLower(strings.TrimSpace(c.Server.Codec))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
}

// HandshakeTimeout returns the client handshake timeout.
func (c *Client) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutSeconds) * time.Second
}

func (s *Server) WorkerIdleTimeout() time.Duration {
	return time.Duration(s.WorkerIdleSeconds) * time.Second
}

func (s *Server) CountdownInterval() time.Duration {
	return time.Duration(s.CountdownIntervalMS) * time.Millisecond
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
