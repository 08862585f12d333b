package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Publisher publishes events to durable RabbitMQ queues.  A single broker
// connection is shared and re-dialled when it drops; each publish opens its
// own channel in confirm mode and waits for the broker to acknowledge the
// message so a nil error means the message is stored.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher returns a publisher for the broker at url.  No connection is
// made until the first publish.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish marshals ev as JSON and publishes it, persistent, to queueName
// through the default exchange.  The queue is declared durable first; the
// declaration is idempotent.
func (p *Publisher) Publish(ctx context.Context, queueName string, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.reset(conn)
		return errors.Wrap(err, "rabbitmq: channel open")
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		return errors.Wrapf(err, "rabbitmq: declare %s", queueName)
	}
	if err := ch.Confirm(false); err != nil {
		return errors.Wrap(err, "rabbitmq: enable confirms")
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         ev.EventAction(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	)
	if err != nil {
		return errors.Wrapf(err, "rabbitmq: publish to %s", queueName)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "rabbitmq: confirm on %s", queueName)
	}
	if !acked {
		return errors.Errorf("rabbitmq: broker nacked %s message %s", queueName, pub.MessageId)
	}
	log.Debug().Str("queue", queueName).Str("message_id", pub.MessageId).Str("action", pub.Type).Msg("event published")
	return nil
}

// Close closes the shared broker connection, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq: dial")
	}
	p.conn = conn
	return conn, nil
}

// reset drops conn so the next publish dials again.
func (p *Publisher) reset(conn *amqp.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		_ = conn.Close()
		p.conn = nil
	}
}
