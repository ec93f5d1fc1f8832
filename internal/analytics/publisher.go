package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink/internal/messaging"
)

// Publishers bundles the typed publish functions for every link event.
type Publishers struct {
	Created messaging.Publish[LinkCreatedEvent]
	Visited messaging.Publish[LinkVisitedEvent]
	Expired messaging.Publish[LinkExpiredEvent]
}

// NewPublishers binds each event type to its topic on publisher.
func NewPublishers(publisher message.Publisher) *Publishers {
	return &Publishers{
		Created: messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		Visited: messaging.NewPublishFunc[LinkVisitedEvent](publisher, TopicLinkVisited),
		Expired: messaging.NewPublishFunc[LinkExpiredEvent](publisher, TopicLinkExpired),
	}
}

// DiscardPublishers drops every event. Used when no broker is configured.
func DiscardPublishers() *Publishers {
	return &Publishers{
		Created: discard[LinkCreatedEvent],
		Visited: discard[LinkVisitedEvent],
		Expired: discard[LinkExpiredEvent],
	}
}

func discard[T any](_ context.Context, _ *T) error {
	return nil
}
