package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherFanOut(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher()
	var typed, all []EventType
	d.Subscribe(EventCallupSent, func(_ context.Context, e Event) error {
		typed = append(typed, e.Type)
		return nil
	})
	d.SubscribeAll(func(_ context.Context, e Event) error {
		all = append(all, e.Type)
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventCallupSent}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTeamUpdated}))

	assert.Equal(t, []EventType{EventCallupSent}, typed)
	assert.Equal(t, []EventType{EventCallupSent, EventTeamUpdated}, all)
}

func TestDispatcherRunsEveryHandler(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher()
	mailErr := errors.New("mail down")
	called := 0
	d.Subscribe(EventTheoryAssigned, func(context.Context, Event) error { return mailErr })
	d.SubscribeAll(func(context.Context, Event) error {
		called++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTheoryAssigned})
	assert.ErrorIs(t, err, mailErr)
	assert.Equal(t, 1, called)
}

func TestDispatcherRecoversHandlerPanics(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventCallupSent, func(context.Context, Event) error { panic("boom") })
	d.SubscribeAll(func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventCallupSent})
	assert.ErrorContains(t, err, "handler panic: boom")
	assert.True(t, reached)
}
