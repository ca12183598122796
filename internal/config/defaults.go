// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

const (
	defaultListen    = "127.0.0.1:8080"
	defaultTCPListen = "127.0.0.1:8081"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Client: Client{
			Origin:                  "http://" + defaultListen,
			Codec:                   "json",
			HandshakeTimeoutSeconds: 10,
			WriteQueueSize:          64,
		},
		Server: Server{
			Listen:              defaultListen,
			TCPListen:           defaultTCPListen,
			MetricsPath:         "/metrics",
			Codec:               "json",
			WriteQueueSize:      64,
			WorkerIdleSeconds:   30,
			CountdownIntervalMS: 1000,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: Rotation{
				MaxSizeMB:  100,
				MaxBackups: 3,
				MaxAgeDays: 7,
			},
		},
	}
}
