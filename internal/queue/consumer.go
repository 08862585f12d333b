package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// NotificationConsumer drains the notifications queue and appends one line
// per payment to notifications.log in its log directory.
type NotificationConsumer struct {
	url    string
	logDir string
}

// NewNotificationConsumer returns a consumer for the broker at url writing
// to logDir.
func NewNotificationConsumer(url, logDir string) *NotificationConsumer {
	return &NotificationConsumer{url: url, logDir: logDir}
}

// Run connects to RabbitMQ, declares the notifications queue (durable) and
// consumes messages until ctx is cancelled.  Broker failures are retried
// with exponential backoff capped at 30s.  A message that cannot be handled
// is rejected without requeue so a poison message cannot spin the loop.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("notification-consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("notification-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *NotificationConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("notification-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(Notifications, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "queue declare")
	}
	msgs, err := ch.Consume(Notifications, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				log.Error().Err(err).Str("message_id", d.MessageId).Msg("notification-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle appends a single human-readable line for a payment notification.
// Messages with another action are acknowledged and ignored.
func (c *NotificationConsumer) Handle(body []byte) error {
	var ev PaymentCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	if ev.Action != ActionPaymentCompleted {
		log.Debug().Str("action", ev.Action).Msg("notification-consumer: skipping message")
		return nil
	}
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir logs")
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Payment completed | order_id=%d | user_id=%d | concert_id=%d | total=%d | tickets=%d | codes=[%s]\n",
		ev.Timestamp.UTC().Format(time.RFC3339), ev.OrderID, ev.UserID, ev.ConcertID, ev.Total,
		ev.TicketsGenerated, strings.Join(ev.TicketCodes, ","))
	if _, err := f.WriteString(line); err != nil {
		return errors.Wrap(err, "write log")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
