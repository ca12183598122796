// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the TOML configuration of the pushmux command.
//
// Sections:
//   - client: how the command reaches endpoints
//   - server: listeners and the demo endpoint
//   - log: level, format, outputs and file rotation
package config
