// README: Optional AMQP sink; republishes hub events to a fanout exchange.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName   = "tableside.events"
	publishTimeout = 5 * time.Second
)

// AMQPSink bridges the in-process hub to external dashboard consumers over
// a RabbitMQ fanout exchange. Delivery is best-effort: publish failures are
// logged and never propagate back to the mutation that emitted the event.
type AMQPSink struct {
	ch     *amqp.Channel
	logger *slog.Logger
}

func NewAMQPSink(conn *amqp.Connection, logger *slog.Logger) (*AMQPSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &AMQPSink{ch: ch, logger: logger}, nil
}

// Run consumes every hub event until ctx is cancelled.
func (s *AMQPSink) Run(ctx context.Context, hub *Hub) {
	events, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.publish(ctx, e)
		}
	}
}

func (s *AMQPSink) publish(ctx context.Context, e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("event marshal failed", "type", e.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   e.At,
	})
	if err != nil {
		s.logger.Error("event publish failed", "type", e.Type, "error", err)
	}
}

func (s *AMQPSink) Close() error {
	return s.ch.Close()
}
