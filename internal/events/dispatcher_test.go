package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		got = append(got, "first:"+string(e.Type))
		return errors.New("handler failed")
	})
	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		got = append(got, "second:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventLoginSucceeded, func(context.Context, Event) error {
		got = append(got, "unexpected")
		return nil
	})

	err := d.Publish(context.Background(), New(EventLoginFailed, nil, AuthFailurePayload{Code: "UNAUTHORIZED"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler failed")
	assert.Equal(t, []string{"first:login_failed", "second:login_failed"}, got)
}

func TestDispatcher_RecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error { panic("boom") })
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), New(EventUserRegistered, nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")
	assert.True(t, delivered)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	d.Subscribe(EventLoginFailed, nil)

	assert.NoError(t, d.Publish(context.Background(), New(EventLoginFailed, nil, nil)))
	assert.Error(t, d.Publish(context.Background(), Event{}))
}

func TestDispatcher_ConcurrentPublish(t *testing.T) {
	d := NewInMemoryDispatcher()

	var mu sync.Mutex
	count := 0
	d.Subscribe(EventTokensRefreshed, func(context.Context, Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Publish(context.Background(), New(EventTokensRefreshed, nil, nil))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, count)
}

func TestNew_StampsEvent(t *testing.T) {
	id := int64(3)
	e := New(EventUserUpdated, &id, UserChangedPayload{Fields: []string{"name"}})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventUserUpdated, e.Type)
	assert.Equal(t, int64(3), *e.UserID)
	assert.False(t, e.Timestamp.IsZero())
}
