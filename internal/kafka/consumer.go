package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/nof0-api/internal/models"
)

// EventHandler reacts to import events
type EventHandler interface {
	HandleImportEvent(ctx context.Context, event models.ImportEvent) error
}

// messageReader is the subset of *kafka.Reader the consumer needs
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer handles consuming import events from Kafka
type Consumer struct {
	reader  messageReader
	topic   string
	handler EventHandler
	logger  *logrus.Logger
}

// NewConsumer creates a new Kafka consumer for import events
func NewConsumer(brokers []string, topic, groupID string, handler EventHandler, logger *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		topic:   topic,
		handler: handler,
		logger:  logger,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.WithField("topic", c.topic).Info("starting import event consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("import event consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.WithError(err).Warn("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.WithError(err).Warn("error processing message")
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.ImportEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal import event: %w", err)
	}

	switch event.EventType {
	case models.EventSectionImported, models.EventImportCompleted:
	default:
		c.logger.WithField("event", event.EventType).Debug("ignoring event type")
		return nil
	}

	if err := c.handler.HandleImportEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to handle %s event: %w", event.EventType, err)
	}
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
