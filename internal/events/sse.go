package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch, dropping them when
// ch is full so a slow SSE client never stalls the publisher.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeSessions forwards every session event into ch. The returned
// function removes all subscriptions.
func SubscribeSessions(bus *Bus, ch chan<- any, withLogs bool) func() {
	unsubs := []func(){
		SubscribeToChannel[SessionCreatedEvent](bus, ch),
		SubscribeToChannel[SessionUpdatedEvent](bus, ch),
		SubscribeToChannel[SessionDeletedEvent](bus, ch),
		SubscribeToChannel[SessionStateChangedEvent](bus, ch),
	}
	if withLogs {
		unsubs = append(unsubs, SubscribeToChannel[SessionLogEvent](bus, ch))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
