// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

// RawValue is an encoded value not yet decoded by the codec that produced it.
type RawValue []byte

// Request is the client to server frame which starts a call.
type Request struct {
	ID     uint64
	Method string
	Args   []any
}

// Reply is a server to client frame. Exactly one of Item, Done and Err
// is meaningful: Done ends the stream normally, a non-empty Err ends it
// with a failure, otherwise Item is one produced result.
type Reply struct {
	ID   uint64
	Item any
	Done bool
	Err  string
}

// InboundRequest is a decoded client frame, either a call or a cancel.
type InboundRequest struct {
	ID     uint64
	Method string
	Args   []RawValue
	Cancel bool
}

// InboundReply is a decoded server frame.
type InboundReply struct {
	ID   uint64
	Item RawValue
	Done bool
	Err  string
}

// Terminal reports whether the frame ends its stream.
func (r InboundReply) Terminal() bool {
	return r.Done || r.Err != ""
}

// Wire layouts. Tags are shared by the JSON and CBOR codecs.

type requestFrame struct {
	ID     uint64 `json:"id" cbor:"id"`
	Method string `json:"method" cbor:"method"`
	Args   []any  `json:"args" cbor:"args"`
}

type cancelFrame struct {
	ID     uint64 `json:"id" cbor:"id"`
	Cancel bool   `json:"cancel" cbor:"cancel"`
}

type itemFrame struct {
	ID   uint64 `json:"id" cbor:"id"`
	Item any    `json:"item" cbor:"item"`
}

type doneFrame struct {
	ID   uint64 `json:"id" cbor:"id"`
	Done bool   `json:"done" cbor:"done"`
}

type errorFrame struct {
	ID    uint64 `json:"id" cbor:"id"`
	Error string `json:"error" cbor:"error"`
}

type inboundRequestFrame[R ~[]byte] struct {
	ID     *uint64 `json:"id" cbor:"id"`
	Method string  `json:"method" cbor:"method"`
	Args   []R     `json:"args" cbor:"args"`
	Cancel bool    `json:"cancel" cbor:"cancel"`
}

type inboundReplyFrame[R ~[]byte] struct {
	ID    *uint64 `json:"id" cbor:"id"`
	Item  R       `json:"item" cbor:"item"`
	Done  bool    `json:"done" cbor:"done"`
	Error string  `json:"error" cbor:"error"`
}
