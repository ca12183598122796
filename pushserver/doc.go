// Copyright 2019 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pushserver serves push endpoints to pushmux clients.
//
// An endpoint is a named set of methods. Every method call produces a
// stream of items which the server sends as item frames followed by one
// done frame, or an error frame when the method fails. A client may cancel
// a call at any time, the method's context is cancelled then and nothing
// more is sent for that call.
//
// Here is a quick example.
//
//	ep := pushserver.NewEndpoint("myPushEndpoint").
//		Handle("startCountdown", func(ctx context.Context, args pushserver.Args, out pushserver.Emitter) error {
//			var name string
//			var n int
//			if err := args.Bind(&name, &n); err != nil {
//				return err
//			}
//			for i := n; i > 0; i-- {
//				if err := out.Emit(ctx, fmt.Sprint(i, "...")); err != nil {
//					return err
//				}
//			}
//			return out.Emit(ctx, "Hello, "+name)
//		})
//
//	srv := pushserver.NewServer(pushserver.Config{Logger: logger})
//	if err := srv.Register(ep); err != nil {
//		log.Fatal(err)
//	}
//	log.Fatal(http.ListenAndServe(":8080", srv))
package pushserver
