package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
)

type testEvent struct {
	shared.BaseEvent
}

func (e testEvent) Payload() map[string]any { return nil }

func newEvent(t shared.EventType) testEvent {
	return testEvent{BaseEvent: shared.NewBaseEvent(t, "agg-1", time.Now())}
}

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)

	var got []shared.EventType
	bus.Subscribe(shared.EventBadgeUnlocked, func(ev shared.Event) {
		got = append(got, ev.EventType())
	})
	bus.SubscribeAll(func(ev shared.Event) {
		got = append(got, "all:"+ev.EventType())
	})

	bus.Publish(newEvent(shared.EventBadgeUnlocked))
	bus.Publish(newEvent(shared.EventLevelUp))

	assert.Equal(t, []shared.EventType{
		shared.EventBadgeUnlocked,
		"all:" + shared.EventBadgeUnlocked,
		"all:" + shared.EventLevelUp,
	}, got)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(nil)

	bus.Subscribe(shared.EventLevelUp, func(ev shared.Event) { panic("boom") })
	delivered := false
	bus.Subscribe(shared.EventLevelUp, func(ev shared.Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Publish(newEvent(shared.EventLevelUp)) })
	assert.True(t, delivered)
}
