// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net"
)

var (
	errNetconnMessageLength = errors.New("netconn io: wrong message length")
)

// NetconnMessageMaxLength is the maximum message length.
const NetconnMessageMaxLength = 32 * 1024 * 1024

type netbufconn struct {
	conn net.Conn
	*bufio.ReadWriter
}

func newNetbufConn(conn net.Conn) netbufconn {
	return netbufconn{
		conn:       conn,
		ReadWriter: bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
	}
}

func (c *netbufconn) Close() error {
	return c.conn.Close()
}

// NetconnMRW converts a net.Conn to a MessageReadWriter.
//
// In the transport layer, message's layout is:
//
//	Length(4-bytes int, big-endian)Message
func NetconnMRW(conn net.Conn) MessageReadWriter {
	return netconnMRW{c: newNetbufConn(conn)}
}

type netconnMRW struct {
	c netbufconn
}

func (rw netconnMRW) OnStop() {
	rw.c.Close()
}

func (rw netconnMRW) ReadMessage() (Message, error) {
	var _l int32
	err := binary.Read(rw.c, binary.BigEndian, &_l)
	if err != nil {
		return nil, err
	}
	l := int(_l)

	if l <= 0 || l > NetconnMessageMaxLength {
		return nil, errNetconnMessageLength
	}

	p := make([]byte, l)
	if _, err = io.ReadFull(rw.c, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (rw netconnMRW) WriteMessage(m Message) error {
	if len(m) == 0 || len(m) > NetconnMessageMaxLength {
		return errNetconnMessageLength
	}

	err := binary.Write(rw.c, binary.BigEndian, int32(len(m)))
	if err != nil {
		return err
	}

	if _, err = rw.c.Write(m); err != nil {
		return err
	}

	return rw.c.Flush()
}
