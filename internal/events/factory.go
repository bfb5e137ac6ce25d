package events

import (
	"context"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

// FromConfig builds the publisher selected by EVENTS_BACKEND. A broker that
// cannot be reached at startup is logged and replaced by Noop so that the
// ledger keeps working.
func FromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) Publisher {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentEvents)

	pub, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize event publisher, continuing without events",
			log.FieldBackend, cfg.EventsBackend,
			log.FieldError, err)
		return Noop{}
	}
	logger.Info("Initialized event publisher", log.FieldBackend, cfg.EventsBackend)
	return pub
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *log.Logger) (Publisher, error) {
	switch cfg.EventsBackend {
	case "", "none":
		return Noop{}, nil
	case "amqp":
		return NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("no kafka brokers configured")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "azqueue":
		return NewQueuePublisher(ctx, cfg.AzureQueueServiceURL, cfg.AzureQueueName, logger)
	default:
		return nil, fmt.Errorf("unknown events backend: %s", cfg.EventsBackend)
	}
}
