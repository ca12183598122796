// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryClosed is returned by a Registry after Close.
	ErrRegistryClosed = errors.New("pushmux: registry closed")
	// ErrChannelClosed is the cause of a ConnectionError when the channel
	// was closed locally.
	ErrChannelClosed = errors.New("pushmux: channel closed")
	// ErrConnectionLost is the cause of a ConnectionError when the peer
	// ended the connection. It does not match io.EOF, a lost connection
	// is never the end of a stream.
	ErrConnectionLost = errors.New("pushmux: connection lost")
)

// ConnectionError reports that the connection of an endpoint could not be
// established or was lost. It poisons the channel: every outstanding and
// future call on it fails with the same error.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("pushmux: endpoint %q connection: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteError reports that the server ended a call's stream with an error.
type RemoteError struct {
	Endpoint string
	Method   string
	ID       uint64
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("pushmux: %s.%s (call %d): %s", e.Endpoint, e.Method, e.ID, e.Message)
}
