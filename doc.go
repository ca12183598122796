// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pushmux multiplexes streaming method calls over one connection
// per endpoint.
//
// A Registry owns one Channel per endpoint name. The first call to an
// endpoint starts its connection, later calls share it. Every call gets a
// fresh id and its replies are routed back by that id, so any number of
// calls can be active on one channel at once.
//
// A Call is a pull iterator: Next returns the items pushed by the server in
// order, then io.EOF once the server sent done. A server side failure is
// reported as a *RemoteError, a lost or refused connection as a
// *ConnectionError. A failed channel is never reconnected, every call on it
// fails with the same error.
//
// Frames are JSON objects by default:
//
//	{"id":1,"method":"startCountdown","args":["Alice",3]}  call
//	{"id":1,"cancel":true}                                  cancel
//	{"id":1,"item":"3..."}                                  item
//	{"id":1,"done":true}                                    done
//	{"id":1,"error":"message"}                              error
//
// CBOR carries the same frames in binary.
//
// The transport layer is defined by the MessageReadWriter interface, there
// are two default implementations:
//
//	NetconnMRW over net.Conn
//	WebsocketMRW over websocket.Conn
//
// Messages of a connection are read, processed and written by a Pump.
//
// Here is a quick example.
//
//	r, err := pushmux.NewRegistry(pushmux.Config{
//		Dialer: &pushmux.WebsocketDialer{Origin: "http://localhost:8080"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	s, err := pushmux.OpenStream[string](ctx, r, "myPushEndpoint", "startCountdown", "Alice", 3)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for item, err := range s.All(ctx) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(item)
//	}
//
// The server half lives in package pushserver.
package pushmux
