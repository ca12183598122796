// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	cbor "github.com/fxamacker/cbor/v2"
)

// ErrMalformedFrame is wrapped by every frame decoding failure.
var ErrMalformedFrame = errors.New("pushmux: malformed frame")

// Codec encodes and decodes frames and the values they carry.
//
// A codec must be safe for concurrent use.
type Codec interface {
	// Name is the configuration name of the codec, "json" or "cbor".
	Name() string
	// Binary reports whether encoded frames are binary data.
	Binary() bool

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error

	EncodeRequest(r Request) (Message, error)
	EncodeCancel(id uint64) (Message, error)
	DecodeRequest(m Message) (InboundRequest, error)

	EncodeReply(r Reply) (Message, error)
	DecodeReply(m Message) (InboundReply, error)
}

// JSON returns the JSON codec, the default wire format.
func JSON() Codec {
	return frameCodec[json.RawMessage]{
		name:      "json",
		marshal:   json.Marshal,
		unmarshal: json.Unmarshal,
	}
}

// CBOR returns a codec using deterministic CBOR (RFC 8949 core profile).
func CBOR() (Codec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return frameCodec[cbor.RawMessage]{
		name:      "cbor",
		binary:    true,
		marshal:   em.Marshal,
		unmarshal: dm.Unmarshal,
	}, nil
}

// CodecByName resolves a configured codec name, empty means JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON(), nil
	case "cbor":
		return CBOR()
	default:
		return nil, fmt.Errorf("pushmux: unknown codec %q", name)
	}
}

// frameCodec implements the frame layouts once for every raw message type.
type frameCodec[R ~[]byte] struct {
	name      string
	binary    bool
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func (c frameCodec[R]) Name() string { return c.name }
func (c frameCodec[R]) Binary() bool { return c.binary }

func (c frameCodec[R]) Marshal(v any) ([]byte, error)      { return c.marshal(v) }
func (c frameCodec[R]) Unmarshal(data []byte, v any) error { return c.unmarshal(data, v) }

func (c frameCodec[R]) EncodeRequest(r Request) (Message, error) {
	args := r.Args
	if args == nil {
		args = []any{}
	}
	return c.marshal(requestFrame{ID: r.ID, Method: r.Method, Args: args})
}

func (c frameCodec[R]) EncodeCancel(id uint64) (Message, error) {
	return c.marshal(cancelFrame{ID: id, Cancel: true})
}

func (c frameCodec[R]) DecodeRequest(m Message) (InboundRequest, error) {
	var f inboundRequestFrame[R]
	if err := c.unmarshal(m, &f); err != nil {
		return InboundRequest{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.ID == nil {
		return InboundRequest{}, fmt.Errorf("%w: missing id", ErrMalformedFrame)
	}
	if !f.Cancel && f.Method == "" {
		return InboundRequest{}, fmt.Errorf("%w: missing method", ErrMalformedFrame)
	}

	args := make([]RawValue, len(f.Args))
	for i, a := range f.Args {
		args[i] = RawValue(a)
	}
	return InboundRequest{ID: *f.ID, Method: f.Method, Args: args, Cancel: f.Cancel}, nil
}

func (c frameCodec[R]) EncodeReply(r Reply) (Message, error) {
	switch {
	case r.Err != "":
		return c.marshal(errorFrame{ID: r.ID, Error: r.Err})
	case r.Done:
		return c.marshal(doneFrame{ID: r.ID, Done: true})
	default:
		return c.marshal(itemFrame{ID: r.ID, Item: r.Item})
	}
}

func (c frameCodec[R]) DecodeReply(m Message) (InboundReply, error) {
	var f inboundReplyFrame[R]
	if err := c.unmarshal(m, &f); err != nil {
		return InboundReply{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.ID == nil {
		return InboundReply{}, fmt.Errorf("%w: missing id", ErrMalformedFrame)
	}
	if !f.Done && f.Error == "" && len(f.Item) == 0 {
		return InboundReply{}, fmt.Errorf("%w: no item, done or error", ErrMalformedFrame)
	}
	return InboundReply{ID: *f.ID, Item: RawValue(f.Item), Done: f.Done, Err: f.Error}, nil
}
