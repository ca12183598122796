package pushmux

import (
	"bytes"
	"io"
	"testing"

	"github.com/gorilla/websocket"
)

type bufferCloser struct {
	bytes.Buffer
}

func (bc *bufferCloser) Close() error {
	return nil
}

type mockWebsocketConn struct {
	rt int
	rb string

	wt int
	wb bufferCloser

	closed bool
}

func (c *mockWebsocketConn) NextReader() (int, io.Reader, error) {
	return c.rt, bytes.NewBufferString(c.rb), nil
}

func (c *mockWebsocketConn) NextWriter(messageType int) (io.WriteCloser, error) {
	c.wt = messageType
	return &c.wb, nil
}

func (c *mockWebsocketConn) Close() error {
	c.closed = true
	return nil
}

func TestWebsocketRead(test *testing.T) {
	c := &mockWebsocketConn{}
	rw := WebsocketMRW(c, false)

	c.rt = websocket.TextMessage
	c.rb = `{"id":0,"done":true}`
	m, err := rw.ReadMessage()
	if string(m) != c.rb || err != nil {
		test.Fatal("websocket io: read text")
	}

	c.rt = websocket.BinaryMessage
	c.rb = "m2"
	m, err = rw.ReadMessage()
	if string(m) != "m2" || err != nil {
		test.Fatal("websocket io: read binary")
	}

	c.rt = websocket.PingMessage
	_, err = rw.ReadMessage()
	if err != errWebsocketMessageType {
		test.Fatal("websocket io: read wrong type")
	}
}

func TestWebsocketWrite(test *testing.T) {
	c := &mockWebsocketConn{}
	rw := WebsocketMRW(c, false)

	err := rw.WriteMessage([]byte("m1"))
	if err != nil {
		test.Fatal(err)
	}

	if c.wt != websocket.TextMessage {
		test.Fatal("websocket io: write wrong type")
	}

	if c.wb.String() != "m1" {
		test.Fatal("websocket io: write wrong format")
	}

	rw = WebsocketMRW(c, true)
	if err = rw.WriteMessage([]byte("m2")); err != nil {
		test.Fatal(err)
	}
	if c.wt != websocket.BinaryMessage {
		test.Fatal("websocket io: write wrong binary type")
	}

	rw.(StopNotifier).OnStop()
	if !c.closed {
		test.Fatal("websocket io: stop should close")
	}
}
