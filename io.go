// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

// Message is one encoded frame as it travels over a transport.
type Message []byte

type MessageReader interface {
	ReadMessage() (m Message, err error)
}

type MessageWriter interface {
	WriteMessage(m Message) error
}

// MessageReadWriter is a message oriented, order preserving connection.
//
// ReadMessage and WriteMessage may be called concurrently with each other,
// but neither is called concurrently with itself.
type MessageReadWriter interface {
	MessageReader
	MessageWriter
}

type StopNotifier interface {
	OnStop()
}

type StopNotifierFunc func()

func (f StopNotifierFunc) OnStop() {
	f()
}
