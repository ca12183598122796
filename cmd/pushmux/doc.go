// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package main is the pushmux command.
//
// serve runs the countdown endpoint over websocket and TCP and exposes
// prometheus metrics, call and countdown open calls against a server and
// print the items as they arrive.
package main
