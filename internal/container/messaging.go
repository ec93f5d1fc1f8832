package container

import (
	"errors"

	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	analyticsstore "github.com/serroba/shortlink/internal/analytics/store"
	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// AnalyticsConsumerGroup is the Redis stream consumer group of the analytics worker.
const AnalyticsConsumerGroup = "analytics"

var errRedisRequired = errors.New("redis is required for analytics messaging")

// PublisherGroupPackage provides *messaging.PublisherGroup and the typed
// *analytics.Publishers built on it. Without Redis, events are discarded.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		r := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if r.Client == nil {
			return nil, errRedisRequired
		}

		publisher, err := messaging.NewRedisPublisher(r.Client, logger)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (*analytics.Publishers, error) {
		if do.MustInvoke[*Redis](i).Client == nil {
			return analytics.DiscardPublishers(), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return analytics.NewPublishers(group.Publisher()), nil
	})
}

// ConsumerGroupPackage provides the analytics *messaging.ConsumerGroup,
// which logs every link event.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		r := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if r.Client == nil {
			return nil, errRedisRequired
		}

		subscriber, err := messaging.NewRedisSubscriber(r.Client, AnalyticsConsumerGroup, logger)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		analytics.RegisterConsumers(group, analyticsstore.NewLogSink(logger), logger)

		return group, nil
	})
}
