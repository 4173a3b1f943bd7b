// Package pubsub publishes room lifecycle events to the message bus. With an
// AMQP URL configured the events go to a durable topic exchange; without one
// they stay on an in-process channel bus, which keeps local development and
// tests broker-free.
package pubsub

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/typeclash/tournament-service/config"
)

func NewPublisher(cfg *config.Config, logger *slog.Logger) (message.Publisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if cfg.AMQP.URL == "" {
		logger.Info("amqp url not configured, using in-process event bus")
		return gochannel.NewGoChannel(gochannel.Config{}, wmLogger), nil
	}

	pub, err := amqp.NewPublisher(amqp.NewDurablePubSubConfig(cfg.AMQP.URL, nil), wmLogger)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: %w", err)
	}
	return pub, nil
}
