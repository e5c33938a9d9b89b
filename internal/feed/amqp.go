package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPFeed carries change events over RabbitMQ. Events are published to a
// direct exchange with the owner id as routing key, so each subscriber
// receives only its owner's changes; server-side scoping mirrors the
// owner filter the store applies to queries.
type AMQPFeed struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queuePrefix  string
	consumerSeq  atomic.Int64
}

// NewAMQPFeed dials the broker and declares the exchange. queuePrefix names
// the durable per-subscriber queues (prefix + owner id).
func NewAMQPFeed(url, exchangeName, queuePrefix string) (*AMQPFeed, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	f := &AMQPFeed{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queuePrefix:  queuePrefix,
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return f, nil
}

// Publish emits one change event routed by owner.
func (f *AMQPFeed) Publish(ctx context.Context, ev Event) error {
	body, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = f.channel.PublishWithContext(
		ctx,
		f.exchangeName, // exchange
		ev.Owner,       // routing key scopes delivery to the owner
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.InfoContext(ctx, "Published change event",
		"owner", ev.Owner,
		"op", ev.Op,
		"id", ev.ID,
		"exchange", f.exchangeName)

	return nil
}

// Subscribe binds an owner-keyed queue and pumps deliveries into fn until
// the handle is called. Events whose owner does not match are acked and
// dropped defensively even though the binding should prevent them.
func (f *AMQPFeed) Subscribe(owner string, fn func(Event)) (Unsubscribe, error) {
	queueName := f.queuePrefix + "." + owner

	if _, err := f.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := f.channel.QueueBind(queueName, owner, f.exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	consumerTag := fmt.Sprintf("%s.consumer.%d", queueName, f.consumerSeq.Add(1))
	deliveries, err := f.channel.Consume(
		queueName,   // queue
		consumerTag, // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				ev, err := UnmarshalEvent(delivery.Body)
				if err != nil {
					slog.Error("Failed to unmarshal change event", "error", err)
					delivery.Nack(false, false)
					continue
				}
				if ev.Owner != owner {
					// Should not happen with a direct binding; drop it.
					slog.Warn("Ignoring change event for different owner",
						"event_owner", ev.Owner, "subscribed_owner", owner)
					delivery.Ack(false)
					continue
				}
				fn(ev)
				delivery.Ack(false)
			}
		}
	}()

	var cancelled atomic.Bool
	return func() {
		if cancelled.CompareAndSwap(false, true) {
			close(done)
			if err := f.channel.Cancel(consumerTag, false); err != nil {
				slog.Warn("Failed to cancel AMQP consumer", "consumer", consumerTag, "error", err)
			}
		}
	}, nil
}

func (f *AMQPFeed) Close() error {
	if f.channel != nil {
		f.channel.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
