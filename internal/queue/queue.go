// internal/queue/queue.go
package queue

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"
)

// EventsQueue carries provider tracking callbacks from the API to the worker.
const EventsQueue = "email_events"

// TrackingEvent is one provider callback. MessageRef is the uuid the
// dispatcher stamped on the email log; LogID may be set instead when the
// caller already resolved the log.
type TrackingEvent struct {
	Event      string `json:"event"`
	MessageRef string `json:"message_ref,omitempty"`
	LogID      int    `json:"log_id,omitempty"`
}

// EventPublisher is the producer side; the controller publishes through it
// so the HTTP path never blocks on event processing.
type EventPublisher interface {
	Publish(ev TrackingEvent) error
}

// AMQPQueue wraps a RabbitMQ connection with the durable events queue
// declared on both ends.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ EventPublisher = (*AMQPQueue)(nil)

func Dial(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		EventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) Publish(ev TrackingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		EventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume feeds queued events to handler until the channel closes. A handler
// error re-publishes the event with a bumped retry header, up to three
// retries, then drops it. A plain nack-requeue would keep the original
// headers and retry forever.
func (q *AMQPQueue) Consume(handler func(TrackingEvent) error) error {
	msgs, err := q.ch.Consume(
		EventsQueue,
		"",
		false, // manual ack for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for d := range msgs {
		var ev TrackingEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Println("⚠️ invalid tracking event:", err)
			d.Ack(false)
			continue
		}

		if err := handler(ev); err != nil {
			var retries int32
			if v, ok := d.Headers["x-retry-count"].(int32); ok {
				retries = v
			}
			if retries < 3 {
				log.Printf("⚠️ tracking event failed (attempt %d/3), requeueing: %v", retries+1, err)
				if perr := q.republish(d.Body, retries+1); perr != nil {
					log.Println("⚠️ failed to requeue tracking event:", perr)
					d.Nack(false, true)
					continue
				}
			} else {
				log.Println("⚠️ tracking event permanently failed:", err)
			}
		}
		d.Ack(false)
	}
	return nil
}

func (q *AMQPQueue) republish(body []byte, retries int32) error {
	return q.ch.Publish(
		"",
		EventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{"x-retry-count": retries},
			Body:         body,
		},
	)
}

func (q *AMQPQueue) Close() {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}
