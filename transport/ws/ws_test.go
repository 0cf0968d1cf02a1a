package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/dispatch"
	"github.com/hupe1980/ipcmesh/transport/memory"
)

var (
	_ core.RoundTripper = (*Client)(nil)
	_ core.Broker       = (*Client)(nil)
)

type ticketArgs struct {
	ID string `json:"id"`
}

func newSession(t *testing.T) (*Client, *memory.Hub) {
	t.Helper()

	r := dispatch.New()
	require.NoError(t, r.Register(
		dispatch.Outcome("get_ticket", func(ctx context.Context, a ticketArgs) core.Outcome[string, string] {
			if a.ID == "" {
				return core.Failure[string, string]("timeout")
			}
			return core.Success[string, string]("ticket-" + a.ID)
		}),
	))
	hub := memory.NewHub()
	t.Cleanup(func() { _ = hub.Close() })

	srv := httptest.NewServer(NewServer(r, hub))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, hub
}

func TestClient_RoundTrip(t *testing.T) {
	c, _ := newSession(t)
	client := core.NewClient(c)
	ctx := context.Background()

	out, err := core.InvokeOutcome[string, string](ctx, client, "get_ticket", ticketArgs{ID: "abc123"})
	require.NoError(t, err)
	s, ok := out.Success()
	require.True(t, ok)
	assert.Equal(t, "ticket-abc123", s)

	out, err = core.InvokeOutcome[string, string](ctx, client, "get_ticket", ticketArgs{})
	require.NoError(t, err)
	f, failed := out.Failure()
	require.True(t, failed)
	assert.Equal(t, "timeout", f)

	_, err = core.Invoke[string](ctx, client, "missing", nil)
	require.Error(t, err)
	assert.True(t, core.IsInvocationError(err))
}

func TestClient_ConcurrentCalls(t *testing.T) {
	c, _ := newSession(t)
	client := core.NewClient(c)

	errs := make(chan error, 16)
	for i := range 16 {
		go func() {
			id := string(rune('a' + i))
			out, err := core.InvokeOutcome[string, string](context.Background(), client, "get_ticket", ticketArgs{ID: id})
			if err == nil {
				if s, _ := out.Success(); s != "ticket-"+id {
					err = assert.AnError
				}
			}
			errs <- err
		}()
	}
	for range 16 {
		require.NoError(t, <-errs)
	}
}

func TestClient_Events(t *testing.T) {
	c, hub := newSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener := core.NewEvents(c)
	stream, err := core.Listen[string](ctx, listener, "connection")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("connection"))

	emitter := core.NewEvents(hub)
	require.NoError(t, core.Emit(ctx, emitter, "connection", "connected"))

	got, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "connected", got)

	require.NoError(t, stream.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("connection") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_PublishThroughServer(t *testing.T) {
	c, hub := newSession(t)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "conversation")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, c.Publish(ctx, "conversation", []byte(`["hi"]`)))
	assert.Equal(t, `["hi"]`, string(<-sub.C()))
}

func TestClient_Closed(t *testing.T) {
	c, _ := newSession(t)
	require.NoError(t, c.Close())

	_, err := c.RoundTrip(context.Background(), core.Request{ID: "1", Method: "get_ticket"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Subscribe(context.Background(), "connection")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestServer_NoBroker(t *testing.T) {
	srv := httptest.NewServer(NewServer(dispatch.New(), nil))
	defer srv.Close()

	c, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Subscribe(context.Background(), "connection")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no broker")
}
