package booking

import (
	"context"
	"encoding/json"
	"time"

	"wellnesschat/backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher puts booking notifications on a durable queue for the counselor desk.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

type bookingMessage struct {
	BookingID     string    `json:"booking_id"`
	ParticipantID string    `json:"participant_id"`
	RequestedFor  string    `json:"requested_for"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Unroutable notifications end up in the dead-letter queue.
	dlq := queue + ".dlq"
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlq,
		},
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *RabbitPublisher) PublishBooking(ctx context.Context, b models.Booking) error {
	body, err := json.Marshal(bookingMessage{
		BookingID:     b.ID,
		ParticipantID: b.ParticipantID,
		RequestedFor:  b.RequestedFor,
		CreatedAt:     b.CreatedAt,
	})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
