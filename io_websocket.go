// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"errors"
	"io"

	"github.com/gorilla/websocket"
)

var (
	errWebsocketMessageType = errors.New("websocket io: need data message")
)

// WebsocketReader interface, see https://pkg.go.dev/github.com/gorilla/websocket#Conn.NextReader
type WebsocketReader interface {
	NextReader() (messageType int, r io.Reader, err error)
}

// WebsocketWriter interface, see https://pkg.go.dev/github.com/gorilla/websocket#Conn.NextWriter
type WebsocketWriter interface {
	NextWriter(messageType int) (io.WriteCloser, error)
}

// WebsocketConn interface, see https://pkg.go.dev/github.com/gorilla/websocket#Conn
type WebsocketConn interface {
	WebsocketReader
	WebsocketWriter
	io.Closer
}

// WebsocketMRW converts a WebsocketConn to a MessageReadWriter.
//
// Every websocket data message carries exactly one frame. Frames are
// written as binary messages when binary is true and as text messages
// otherwise; both kinds are accepted when reading.
func WebsocketMRW(c WebsocketConn, binary bool) MessageReadWriter {
	wt := websocket.TextMessage
	if binary {
		wt = websocket.BinaryMessage
	}
	return websocketMRW{c: c, wt: wt}
}

type websocketMRW struct {
	c  WebsocketConn
	wt int
}

func (rw websocketMRW) OnStop() {
	rw.c.Close()
}

func (rw websocketMRW) ReadMessage() (Message, error) {
	wst, wsr, err := rw.c.NextReader()
	if err != nil {
		return nil, err
	}

	if wst != websocket.TextMessage && wst != websocket.BinaryMessage {
		return nil, errWebsocketMessageType
	}

	return io.ReadAll(wsr)
}

func (rw websocketMRW) WriteMessage(m Message) error {
	wswc, err := rw.c.NextWriter(rw.wt)
	if err != nil {
		return err
	}

	if _, err = wswc.Write(m); err != nil {
		wswc.Close()
		return err
	}

	return wswc.Close()
}
