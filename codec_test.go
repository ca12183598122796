package pushmux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRequestLayout(t *testing.T) {
	c := JSON()

	m, err := c.EncodeRequest(Request{ID: 0, Method: "startCountdown", Args: []any{"Alice", 5}})
	require.NoError(t, err)
	assert.Equal(t, `{"id":0,"method":"startCountdown","args":["Alice",5]}`, string(m))

	m, err = c.EncodeRequest(Request{ID: 3, Method: "ping"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"method":"ping","args":[]}`, string(m))

	m, err = c.EncodeCancel(3)
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"cancel":true}`, string(m))
}

func TestJSONReplyLayout(t *testing.T) {
	c := JSON()

	m, err := c.EncodeReply(Reply{ID: 1, Item: "4..."})
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"item":"4..."}`, string(m))

	m, err = c.EncodeReply(Reply{ID: 1, Done: true})
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"done":true}`, string(m))

	m, err = c.EncodeReply(Reply{ID: 1, Err: "boom"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"error":"boom"}`, string(m))
}

func TestJSONDecodeReply(t *testing.T) {
	c := JSON()

	r, err := c.DecodeReply(Message(`{"id":7,"item":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), r.ID)
	assert.JSONEq(t, `{"a":1}`, string(r.Item))
	assert.False(t, r.Terminal())

	r, err = c.DecodeReply(Message(`{"id":7,"item":null}`))
	require.NoError(t, err)
	assert.Equal(t, "null", string(r.Item))

	r, err = c.DecodeReply(Message(`{"id":7,"done":true}`))
	require.NoError(t, err)
	assert.True(t, r.Terminal())

	r, err = c.DecodeReply(Message(`{"id":7,"error":"bad"}`))
	require.NoError(t, err)
	assert.True(t, r.Terminal())
	assert.Equal(t, "bad", r.Err)

	for _, bad := range []string{
		``,
		`[]`,
		`{"id":"x","item":1}`,
		`{"item":1}`,
		`{"id":1}`,
		`{"id":1,"done":false}`,
	} {
		_, err := c.DecodeReply(Message(bad))
		assert.True(t, errors.Is(err, ErrMalformedFrame), "frame %q: %v", bad, err)
	}
}

func TestJSONDecodeRequest(t *testing.T) {
	c := JSON()

	r, err := c.DecodeRequest(Message(`{"id":2,"method":"startCountdown","args":["Alice",5]}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.ID)
	assert.Equal(t, "startCountdown", r.Method)
	require.Len(t, r.Args, 2)

	var name string
	var n int
	require.NoError(t, c.Unmarshal(r.Args[0], &name))
	require.NoError(t, c.Unmarshal(r.Args[1], &n))
	assert.Equal(t, "Alice", name)
	assert.Equal(t, 5, n)

	r, err = c.DecodeRequest(Message(`{"id":2,"cancel":true}`))
	require.NoError(t, err)
	assert.True(t, r.Cancel)

	_, err = c.DecodeRequest(Message(`{"id":2}`))
	assert.ErrorIs(t, err, ErrMalformedFrame)
	_, err = c.DecodeRequest(Message(`{"method":"m"}`))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestCBORFrames(t *testing.T) {
	c, err := CBOR()
	require.NoError(t, err)
	assert.True(t, c.Binary())

	m, err := c.EncodeRequest(Request{ID: 9, Method: "startCountdown", Args: []any{"Bob", 2}})
	require.NoError(t, err)
	req, err := c.DecodeRequest(m)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), req.ID)
	assert.Equal(t, "startCountdown", req.Method)
	var name string
	require.NoError(t, c.Unmarshal(req.Args[0], &name))
	assert.Equal(t, "Bob", name)

	m, err = c.EncodeReply(Reply{ID: 9, Item: "1..."})
	require.NoError(t, err)
	rep, err := c.DecodeReply(m)
	require.NoError(t, err)
	var item string
	require.NoError(t, c.Unmarshal(rep.Item, &item))
	assert.Equal(t, "1...", item)

	m, err = c.EncodeReply(Reply{ID: 9, Done: true})
	require.NoError(t, err)
	rep, err = c.DecodeReply(m)
	require.NoError(t, err)
	assert.True(t, rep.Done)

	_, err = c.DecodeReply(Message(`{"id":1}`))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	c, err = CodecByName("CBOR")
	require.NoError(t, err)
	assert.Equal(t, "cbor", c.Name())

	_, err = CodecByName("xml")
	assert.Error(t, err)
}
