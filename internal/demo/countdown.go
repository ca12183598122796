// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package demo holds the countdown endpoint and its typed client stub.
package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/someonegg/pushmux"
	"github.com/someonegg/pushmux/pushserver"
)

const (
	Endpoint             = "myPushEndpoint"
	MethodStartCountdown = "startCountdown"
)

// CountdownEndpoint serves startCountdown(name, duration): one item per
// interval, "<n>..." for n from duration down to 1, then "Hello, <name>".
func CountdownEndpoint(interval time.Duration) *pushserver.Endpoint {
	return pushserver.NewEndpoint(Endpoint).
		Handle(MethodStartCountdown, func(ctx context.Context, args pushserver.Args, out pushserver.Emitter) error {
			var name string
			var duration int
			if err := args.Bind(&name, &duration); err != nil {
				return err
			}
			return countdown(ctx, interval, name, duration, out)
		})
}

func countdown(ctx context.Context, interval time.Duration, name string, duration int, out pushserver.Emitter) error {
	if duration < 0 {
		return errors.New("duration must not be negative")
	}
	if interval <= 0 {
		interval = time.Nanosecond
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for remaining := duration; remaining >= 0; remaining-- {
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}

		item := fmt.Sprint(remaining, "...")
		if remaining == 0 {
			item = "Hello, " + name
		}
		if err := out.Emit(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// StartCountdown calls startCountdown on r.
func StartCountdown(ctx context.Context, r *pushmux.Registry, name string, duration int) (*pushmux.Stream[string], error) {
	return pushmux.OpenStream[string](ctx, r, Endpoint, MethodStartCountdown, name, duration)
}
