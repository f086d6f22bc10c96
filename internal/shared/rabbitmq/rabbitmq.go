// Package rabbitmq wraps the AMQP connection the trigger feed arrives on.
// The engine only consumes from the broker; the CRUD application owns the
// publishing side.
package rabbitmq

import (
	"github.com/rabbitmq/amqp091-go"
)

// One channel with a small prefetch is enough for a single consumer.
const prefetchCount = 8

// Client holds one connection and one channel to the broker.
type Client struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// Dial connects to the broker and opens a channel configured for manual
// acknowledgements with a bounded prefetch.
func Dial(url string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.Qos(prefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &Client{
		conn:    conn,
		channel: channel,
	}, nil
}

// DeclareTopic declares a durable topic exchange and a durable queue, and
// binds the queue under routingKey. Declarations are idempotent on the
// broker side, so the consumer repeats them after every reconnect.
func (c *Client) DeclareTopic(exchange, queue, routingKey string) error {
	if err := c.channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return err
	}

	if _, err := c.channel.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return err
	}

	return c.channel.QueueBind(
		queue,
		routingKey,
		exchange,
		false, // no-wait
		nil,   // arguments
	)
}

// Delivery is one trigger message awaiting an explicit acknowledgement.
type Delivery struct {
	Body       []byte
	RoutingKey string
	delivery   amqp091.Delivery
}

// Ack confirms the message was processed.
func (d *Delivery) Ack() error {
	return d.delivery.Ack(false)
}

// Drop rejects the message without redelivery. Used for payloads that
// will never parse.
func (d *Delivery) Drop() error {
	return d.delivery.Nack(false, false)
}

// Requeue rejects the message and asks the broker to deliver it again.
func (d *Delivery) Requeue() error {
	return d.delivery.Nack(false, true)
}

// Consume starts delivering messages from queue. The returned channel
// closes when the broker drops the underlying AMQP channel.
func (c *Client) Consume(queue, consumerTag string) (<-chan Delivery, error) {
	msgs, err := c.channel.Consume(
		queue,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}

	deliveries := make(chan Delivery)
	go func() {
		defer close(deliveries)
		for d := range msgs {
			deliveries <- Delivery{
				Body:       d.Body,
				RoutingKey: d.RoutingKey,
				delivery:   d,
			}
		}
	}()

	return deliveries, nil
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
