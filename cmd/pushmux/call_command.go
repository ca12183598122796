// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/someonegg/pushmux"
	"github.com/someonegg/pushmux/internal/demo"
)

func newCallCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	var limit int

	cmd := &cobra.Command{
		Use:   "call ENDPOINT METHOD [ARG...]",
		Short: "Open a call and print its items",
		Long: "Open a call and print its items.\n\n" +
			"Arguments are parsed as JSON literals, anything else is sent as a string.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.newRegistry()
			if err != nil {
				return err
			}
			defer r.Close()

			runCtx, cancel := callContext(cmd.Context(), timeout)
			defer cancel()

			call, err := r.OpenCall(runCtx, args[0], args[1], parseArgs(args[2:])...)
			if err != nil {
				return err
			}
			return printItems(runCtx, cmd.OutOrStdout(), call, limit)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 waits for the end of the stream)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Cancel the call after this many items (0 reads all)")
	return cmd
}

func newCountdownCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "countdown NAME DURATION",
		Short: "Run the countdown demo against a server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], err)
			}

			r, err := ctx.newRegistry()
			if err != nil {
				return err
			}
			defer r.Close()

			runCtx, cancel := callContext(cmd.Context(), 0)
			defer cancel()

			s, err := demo.StartCountdown(runCtx, r, args[0], duration)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for item, err := range s.All(runCtx) {
				if err != nil {
					return err
				}
				fmt.Fprintln(out, item)
			}
			return nil
		},
	}
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// parseArgs turns command line words into call arguments.
func parseArgs(words []string) []any {
	args := make([]any, 0, len(words))
	for _, w := range words {
		args = append(args, parseArg(w))
	}
	return args
}

func parseArg(w string) any {
	if n, err := strconv.ParseInt(w, 10, 64); err == nil {
		return n
	}
	var v any
	if err := json.Unmarshal([]byte(w), &v); err == nil {
		return v
	}
	return w
}

// printItems prints the items of c, one per line, until the stream ends
// or limit items were printed.
func printItems(ctx context.Context, out io.Writer, c *pushmux.Call, limit int) error {
	n := 0
	for it, err := range c.All(ctx) {
		if err != nil {
			return err
		}
		var v any
		if err := it.Decode(&v); err != nil {
			return fmt.Errorf("decode item: %w", err)
		}
		fmt.Fprintln(out, formatItem(v))

		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return nil
}

func formatItem(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
