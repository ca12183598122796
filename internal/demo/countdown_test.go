package demo

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someonegg/pushmux"
	"github.com/someonegg/pushmux/pushserver"
)

func newRegistry(t *testing.T, interval time.Duration) *pushmux.Registry {
	t.Helper()
	srv := pushserver.NewServer(pushserver.Config{})
	require.NoError(t, srv.Register(CountdownEndpoint(interval)))
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)

	r, err := pushmux.NewRegistry(pushmux.Config{Dialer: &pushmux.WebsocketDialer{Origin: hs.URL}})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStartCountdown(t *testing.T) {
	r := newRegistry(t, time.Millisecond)
	ctx := testContext(t)

	cases := []struct {
		duration int
		want     []string
	}{
		{0, []string{"Hello, Alice"}},
		{1, []string{"1...", "Hello, Alice"}},
		{3, []string{"3...", "2...", "1...", "Hello, Alice"}},
	}
	for _, c := range cases {
		s, err := StartCountdown(ctx, r, "Alice", c.duration)
		require.NoError(t, err)
		got, err := s.Collect(ctx)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestStartCountdownConcurrent(t *testing.T) {
	r := newRegistry(t, time.Millisecond)
	ctx := testContext(t)

	a, err := StartCountdown(ctx, r, "Alice", 2)
	require.NoError(t, err)
	b, err := StartCountdown(ctx, r, "Bob", 3)
	require.NoError(t, err)
	assert.NotEqual(t, a.Call().ID(), b.Call().ID())

	gotB, err := b.Collect(ctx)
	require.NoError(t, err)
	gotA, err := a.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2...", "1...", "Hello, Alice"}, gotA)
	assert.Equal(t, []string{"3...", "2...", "1...", "Hello, Bob"}, gotB)
}

func TestStartCountdownNegative(t *testing.T) {
	r := newRegistry(t, time.Millisecond)
	ctx := testContext(t)

	s, err := StartCountdown(ctx, r, "Alice", -1)
	require.NoError(t, err)
	_, err = s.Next(ctx)
	var re *pushmux.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "duration must not be negative", re.Message)
}

func TestStartCountdownEarlyBreak(t *testing.T) {
	r := newRegistry(t, 20*time.Millisecond)
	ctx := testContext(t)

	s, err := StartCountdown(ctx, r, "Alice", 100)
	require.NoError(t, err)

	var got []string
	for item, err := range s.All(ctx) {
		require.NoError(t, err)
		got = append(got, item)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"100...", "99..."}, got)

	ch, err := r.Channel(Endpoint)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.Outstanding())
}

type sliceEmitter struct {
	items []any
}

func (e *sliceEmitter) Emit(ctx context.Context, item any) error {
	e.items = append(e.items, item)
	return nil
}

func TestCountdownStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out sliceEmitter
	err := countdown(ctx, time.Hour, "Alice", 3, &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.items)
}
