package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/metrics"
	"github.com/gatherly/notification-engine/internal/service"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/gatherly/notification-engine/internal/shared/rabbitmq"
	"github.com/google/uuid"
)

const (
	triggerExchange   = "events"
	triggerQueue      = "notification_triggers"
	triggerRoutingKey = "event.*"
	restartDelay      = 5 * time.Second
)

// TriggerConsumer consumes trigger events the CRUD application publishes
// after its own writes commit, and drives the dispatcher through the trigger
// processor.
type TriggerConsumer struct {
	client    *rabbitmq.Client
	processor *service.TriggerProcessor
	log       *logger.Logger
	tag       string
}

// NewTriggerConsumer creates a new trigger consumer
func NewTriggerConsumer(client *rabbitmq.Client, processor *service.TriggerProcessor, log *logger.Logger) *TriggerConsumer {
	return &TriggerConsumer{
		client:    client,
		processor: processor,
		log:       log,
		tag:       "notification-engine-" + uuid.New().String(),
	}
}

// Run consumes until the context is cancelled, restarting the consume loop
// after broker-side channel drops.
func (c *TriggerConsumer) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			c.log.Error("trigger consumer stopped", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
			metrics.ConsumerRestarts.Inc()
			c.log.Info("restarting trigger consumer")
		}
	}
}

// consume declares the topology and processes messages until the delivery
// channel closes or the context is cancelled.
func (c *TriggerConsumer) consume(ctx context.Context) error {
	if err := c.client.DeclareTopic(triggerExchange, triggerQueue, triggerRoutingKey); err != nil {
		return err
	}

	messages, err := c.client.Consume(triggerQueue, c.tag)
	if err != nil {
		return err
	}

	c.log.Info("trigger consumer started", "queue", triggerQueue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

// handle decodes and processes one message. Malformed payloads are dropped;
// processing failures are requeued for another attempt.
func (c *TriggerConsumer) handle(ctx context.Context, msg rabbitmq.Delivery) {
	var trigger domain.TriggerEvent
	if err := json.Unmarshal(msg.Body, &trigger); err != nil {
		c.log.Error("failed to unmarshal trigger", "error", err, "routing_key", msg.RoutingKey)
		msg.Drop()
		return
	}

	if err := c.processor.Process(ctx, &trigger); err != nil {
		c.log.Error("failed to process trigger", "error", err, "type", trigger.Type)
		msg.Requeue()
		return
	}

	msg.Ack()
}
