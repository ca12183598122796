// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Dialer connects a channel to the server side of an endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (MessageReadWriter, error)
}

// The DialerFunc type is an adapter to allow the use of ordinary
// functions as dialers.
type DialerFunc func(ctx context.Context, endpoint string) (MessageReadWriter, error)

// Dial calls f(ctx, endpoint).
func (f DialerFunc) Dial(ctx context.Context, endpoint string) (MessageReadWriter, error) {
	return f(ctx, endpoint)
}

// EndpointURL derives the socket address of an endpoint from an origin:
// the scheme is upgraded to its websocket form and the endpoint name is
// appended to the path.
func EndpointURL(origin, endpoint string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("pushmux: parse origin: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("pushmux: unsupported origin scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("pushmux: origin %q has no host", origin)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + endpoint
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// WebsocketDialer dials endpoints as websockets below Origin.
type WebsocketDialer struct {
	Origin string
	// Binary selects binary websocket messages, it must match the codec.
	Binary bool

	// Dialer can be nil, a dialer with HandshakeTimeout is used then.
	Dialer *websocket.Dialer
	Header http.Header

	HandshakeTimeout time.Duration
	// ReadLimit bounds the size of one inbound frame when positive.
	ReadLimit int64
}

func (d *WebsocketDialer) Dial(ctx context.Context, endpoint string) (MessageReadWriter, error) {
	addr, err := EndpointURL(d.Origin, endpoint)
	if err != nil {
		return nil, err
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: d.HandshakeTimeout,
		}
	}

	conn, resp, err := dialer.DialContext(ctx, addr, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", addr, err)
	}

	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return WebsocketMRW(conn, d.Binary), nil
}

// NetconnDialer dials endpoints over a stream connection. The first message
// sent on a new connection is the endpoint name.
type NetconnDialer struct {
	Network string
	Address string
	Timeout time.Duration
}

func (d *NetconnDialer) Dial(ctx context.Context, endpoint string) (MessageReadWriter, error) {
	network := d.Network
	if network == "" {
		network = "tcp"
	}

	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, network, d.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, d.Address, err)
	}

	rw := NetconnMRW(conn)
	if err := rw.WriteMessage(Message(endpoint)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send endpoint preamble: %w", err)
	}
	return rw, nil
}
