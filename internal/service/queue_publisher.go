// Package queue_publisher publishes booking lifecycle events to RabbitMQ.
// Events are fired after the database transaction commits; any broker
// error is logged and returned so callers can ignore it without breaking
// the request that produced the event.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/table-reservation/internal/queue"
)

// PublishBookingCreated publishes ev to the booking.created queue.
func PublishBookingCreated(ctx context.Context, ev q.BookingCreatedEvent) error {
	return publishJSON(ctx, q.BookingCreatedQueue, ev)
}

// PublishBookingCancelled publishes ev to the booking.cancelled queue.
func PublishBookingCancelled(ctx context.Context, ev q.BookingCancelledEvent) error {
	return publishJSON(ctx, q.BookingCancelledQueue, ev)
}

// publishJSON dials the broker, declares the durable queue and publishes
// a persistent JSON message. A connection per publish keeps the publisher
// free of shared state; booking volume is nowhere near the point where
// that matters.
func publishJSON(ctx context.Context, queueName string, payload any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
