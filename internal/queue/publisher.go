package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuthEventsQueue is the durable queue auth events are routed to.
const AuthEventsQueue = "auth.events"

// Publisher publishes auth events to RabbitMQ.  Each call dials its own
// connection; auth events are infrequent relative to requests and this keeps
// the publisher free of reconnect state.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// Publish sends ev to the auth.events queue.  Errors are logged and
// returned so the caller can choose to ignore them.  Messages are marked as
// persistent.
func (p *Publisher) Publish(ctx context.Context, ev AuthEvent) error {
	conn, err := amqp.Dial(p.URL)
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

	if _, err := ch.QueueDeclare(
		AuthEventsQueue, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", AuthEventsQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// Discard drops every event.  Used when EVENTS_ENABLED is off.
type Discard struct{}

func (Discard) Publish(context.Context, AuthEvent) error { return nil }
