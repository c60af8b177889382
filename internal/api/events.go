package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/relaycast/internal/events"
)

// EventsInput selects the optional event streams of /api/events.
type EventsInput struct {
	Logs bool `query:"logs" doc:"Also stream session log lines"`
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of session lifecycle changes and, optionally, log lines",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"session-created":       events.SessionCreatedEvent{},
		"session-updated":       events.SessionUpdatedEvent{},
		"session-deleted":       events.SessionDeletedEvent{},
		"session-state-changed": events.SessionStateChangedEvent{},
		"session-log":           events.SessionLogEvent{},
	}, func(ctx context.Context, input *EventsInput, send sse.Sender) {
		eventCh := make(chan any, 64)
		unsubscribe := events.SubscribeSessions(s.eventBus, eventCh, input.Logs)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
