// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux_test

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/someonegg/pushmux"
	"github.com/someonegg/pushmux/pushserver"
)

func countdown(ctx context.Context, args pushserver.Args, out pushserver.Emitter) error {
	var name string
	var n int
	if err := args.Bind(&name, &n); err != nil {
		return err
	}
	for i := n; i > 0; i-- {
		if err := out.Emit(ctx, fmt.Sprint(i, "...")); err != nil {
			return err
		}
	}
	return out.Emit(ctx, "Hello, "+name)
}

func server(ctx context.Context) net.Addr {
	srv := pushserver.NewServer(pushserver.Config{})
	err := srv.Register(pushserver.NewEndpoint("myPushEndpoint").Handle("startCountdown", countdown))
	if err != nil {
		log.Fatal(err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}
	go srv.ServeNetconn(ctx, l)
	return l.Addr()
}

func Example() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addr := server(ctx)

	r, err := pushmux.NewRegistry(pushmux.Config{
		Dialer: &pushmux.NetconnDialer{Address: addr.String()},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	s, err := pushmux.OpenStream[string](ctx, r, "myPushEndpoint", "startCountdown", "Alice", 3)
	if err != nil {
		log.Fatal(err)
	}
	for item, err := range s.All(ctx) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(item)
	}
	// Output:
	// 3...
	// 2...
	// 1...
	// Hello, Alice
}
