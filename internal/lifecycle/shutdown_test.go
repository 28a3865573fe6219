package lifecycle

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestShutdown_Trigger(t *testing.T) {
	s := NewShutdown()
	defer s.Stop()
	ctx := s.Watch(context.Background())

	assert.Empty(t, s.Reason())
	s.Trigger("manual")
	waitDone(t, ctx)

	s.Trigger("again")
	assert.Equal(t, "manual", s.Reason())
}

func TestShutdown_Signal(t *testing.T) {
	s := NewShutdown()
	defer s.Stop()
	ctx := s.Watch(context.Background())

	s.signals <- syscall.SIGTERM
	waitDone(t, ctx)
	assert.Contains(t, s.Reason(), "terminated")
}

func TestShutdown_ParentCancelled(t *testing.T) {
	s := NewShutdown()
	defer s.Stop()
	parent, cancel := context.WithCancel(context.Background())

	ctx := s.Watch(parent)
	cancel()
	waitDone(t, ctx)
	assert.Empty(t, s.Reason())
}

func TestShutdown_StopIsIdempotent(t *testing.T) {
	s := NewShutdown()
	s.Watch(context.Background())
	s.Stop()
	s.Stop()
}

func TestGraceful(t *testing.T) {
	t.Run("returns the result of fn", func(t *testing.T) {
		boom := errors.New("boom")
		err := Graceful(context.Background(), func(context.Context) error { return boom }, time.Second)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("times out", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)
		err := Graceful(context.Background(), func(context.Context) error {
			<-block
			return nil
		}, 20*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	})
}
