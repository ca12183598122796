package pushmux

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory transport, the test plays the server.
type fakeConn struct {
	in  chan Message
	out chan Message

	stopOnce sync.Once
	stopped  chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan Message, 64),
		out:     make(chan Message, 64),
		stopped: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (Message, error) {
	select {
	case m, ok := <-c.in:
		if !ok {
			return nil, io.EOF
		}
		return m, nil
	case <-c.stopped:
		return nil, io.ErrClosedPipe
	}
}

func (c *fakeConn) WriteMessage(m Message) error {
	select {
	case c.out <- m:
		return nil
	case <-c.stopped:
		return io.ErrClosedPipe
	}
}

func (c *fakeConn) OnStop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

// push sends a raw server frame.
func (c *fakeConn) push(frame string) {
	c.in <- Message(frame)
}

// hangup simulates the server dropping the connection.
func (c *fakeConn) hangup() {
	close(c.in)
}

// expect waits for the next client frame.
func (c *fakeConn) expect(t *testing.T) map[string]any {
	t.Helper()
	select {
	case m := <-c.out:
		var f map[string]any
		if err := json.Unmarshal(m, &f); err != nil {
			t.Fatalf("client sent invalid frame %q: %v", m, err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame from client")
		return nil
	}
}

func (c *fakeConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case m := <-c.out:
		t.Fatalf("unexpected frame %q", m)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeDialer hands out one fakeConn per endpoint and counts dials.
type fakeDialer struct {
	mu    sync.Mutex
	conns map[string]*fakeConn
	dials int

	// gate blocks every dial until closed when not nil.
	gate chan struct{}
	err  error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[string]*fakeConn)}
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (MessageReadWriter, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns[endpoint] = c
	return c, nil
}

func (d *fakeDialer) conn(t *testing.T, endpoint string) *fakeConn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		c := d.conns[endpoint]
		d.mu.Unlock()
		if c != nil {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("endpoint %q never dialed", endpoint)
	return nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

var errRefused = errors.New("connection refused")

func newTestRegistry(t *testing.T, d Dialer, cfg Config) *Registry {
	t.Helper()
	cfg.Dialer = d
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// waitFor polls cond until it holds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// expectRaw waits for the next client frame and returns it undecoded.
func (c *fakeConn) expectRaw(t *testing.T) string {
	t.Helper()
	select {
	case m := <-c.out:
		return string(m)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame from client")
		return ""
	}
}
