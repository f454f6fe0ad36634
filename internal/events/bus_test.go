package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBus_DeliversInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var (
		mu  sync.Mutex
		got []int
	)
	bus.SubscribeFunc(AttemptFinished, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(AttemptFinishedEvent).Index)
		return nil
	})

	for i := 1; i <= 5; i++ {
		require.NoError(t, bus.Publish(AttemptFinishedEvent{BaseEvent: NewBase(AttemptFinished), Index: i}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	calls := 0
	sub := bus.SubscribeFunc(BatchFinished, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.PublishSync(context.Background(), BatchFinishedEvent{BaseEvent: NewBase(BatchFinished)}))
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(context.Background(), BatchFinishedEvent{BaseEvent: NewBase(BatchFinished)}))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Stats()["event_types"])
	require.NoError(t, bus.Shutdown(context.Background()))
}

func TestBus_PublishAfterShutdown(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	require.NoError(t, bus.Shutdown(context.Background()))

	err := bus.Publish(AttemptStartedEvent{BaseEvent: NewBase(AttemptStarted)})
	assert.ErrorIs(t, err, ErrBusClosed)
}
