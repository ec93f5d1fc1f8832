package analytics

import (
	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one typed consumer per link topic to group, each
// writing into store.
func RegisterConsumers(group *messaging.ConsumerGroup, store Store, logger *zap.Logger) {
	sub := group.Subscriber()

	group.Add(messaging.NewConsumer(sub, TopicLinkCreated, store.SaveLinkCreated, logger))
	group.Add(messaging.NewConsumer(sub, TopicLinkVisited, store.SaveLinkVisited, logger))
	group.Add(messaging.NewConsumer(sub, TopicLinkExpired, store.SaveLinkExpired, logger))
}
