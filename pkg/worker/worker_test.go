package worker

import (
	"context"
	"testing"
	"time"

	"github.com/blogic/udrone/pkg/wire"
	"github.com/stretchr/testify/require"
)

func TestStartRunsAndReportsResult(t *testing.T) {
	s := New()
	require.False(t, s.Running())

	s.Start(context.Background(), func(_ context.Context, args *wire.Table, out *wire.Table) int {
		out.Set("ok", true)
		return wire.DataReply
	}, wire.NewTable())

	require.True(t, s.Running())

	select {
	case r := <-s.Results():
		require.Equal(t, wire.DataReply, r.Code)
		ok, _ := r.Out.Get("ok")
		require.Equal(t, true, ok)
		s.Done()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for worker result")
	}

	require.False(t, s.Running())
}

func TestStartPanicsWhenAlreadyRunning(t *testing.T) {
	s := New()
	block := make(chan struct{})
	s.Start(context.Background(), func(ctx context.Context, _ *wire.Table, _ *wire.Table) int {
		<-block
		return 0
	}, wire.NewTable())

	require.Panics(t, func() {
		s.Start(context.Background(), func(_ context.Context, _ *wire.Table, _ *wire.Table) int {
			return 0
		}, wire.NewTable())
	})

	close(block)
	<-s.Results()
	s.Done()
}

func TestCancelStopsHandlerContext(t *testing.T) {
	s := New()
	cancelled := make(chan struct{})
	s.Start(context.Background(), func(ctx context.Context, _ *wire.Table, _ *wire.Table) int {
		<-ctx.Done()
		close(cancelled)
		return -1
	}, wire.NewTable())

	s.Cancel()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}

	<-s.Results()
	s.Done()
}
