package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/transport/memory"
)

func TestEvents_SubscribeBeforeEmit(t *testing.T) {
	hub := memory.NewHub()
	defer hub.Close()
	events := core.NewEvents(hub)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := core.Listen[string](ctx, events, "connection")
	require.NoError(t, err)
	assert.Equal(t, "connection", stream.Name())

	require.NoError(t, core.Emit(ctx, events, "connection", "connected"))
	got, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "connected", got)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, core.ErrStreamClosed)
}

func TestEvents_CancelBeforeEmit(t *testing.T) {
	hub := memory.NewHub()
	defer hub.Close()
	events := core.NewEvents(hub)
	ctx := context.Background()

	stream, err := core.Listen[string](ctx, events, "connection")
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.Equal(t, 0, hub.Subscribers("connection"))

	// Nobody listens any more; emitting still succeeds.
	require.NoError(t, core.Emit(ctx, events, "connection", "connected"))
}

func TestStream_All(t *testing.T) {
	hub := memory.NewHub()
	defer hub.Close()
	events := core.NewEvents(hub)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := core.Listen[[]string](ctx, events, "conversation")
	require.NoError(t, err)
	for _, msg := range [][]string{{"a"}, {"b", "c"}} {
		require.NoError(t, core.Emit(ctx, events, "conversation", msg))
	}

	var got [][]string
	for v, err := range stream.All(ctx) {
		require.NoError(t, err)
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, got)
	assert.Equal(t, 0, hub.Subscribers("conversation"))

	for _, err := range stream.All(ctx) {
		assert.ErrorIs(t, err, core.ErrStreamConsumed)
	}
}

func TestStream_UndecodablePayload(t *testing.T) {
	hub := memory.NewHub()
	defer hub.Close()
	events := core.NewEvents(hub)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := core.Listen[int](ctx, events, "count")
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, hub.Publish(ctx, "count", []byte(`"three"`)))
	require.NoError(t, core.Emit(ctx, events, "count", 3))

	_, err = stream.Next(ctx)
	var hostErr *core.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "decode", hostErr.Op)

	n, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

type failingBroker struct{ err error }

func (b failingBroker) Publish(context.Context, string, []byte) error { return b.err }

func (b failingBroker) Subscribe(context.Context, string) (core.RawSubscription, error) {
	return nil, b.err
}

func TestEvents_Failures(t *testing.T) {
	boom := errors.New("broker down")
	events := core.NewEvents(failingBroker{err: boom})
	ctx := context.Background()

	_, err := core.Listen[string](ctx, events, "connection")
	require.Error(t, err)
	assert.True(t, core.IsSubscriptionError(err))
	assert.ErrorIs(t, err, boom)

	err = core.Emit(ctx, events, "connection", "x")
	var hostErr *core.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "emit", hostErr.Op)
	assert.ErrorIs(t, err, boom)
}
