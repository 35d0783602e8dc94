// Package notification publishes goal events.
package notification

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Notifier delivers goal events.
type Notifier interface {
	Notify(ctx context.Context, e domain.Event) error
}

// MessageWriter is the subset of *kafka.Writer the Kafka notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier publishes events as JSON keyed by goal id so events of one goal keep
// their order within a partition.
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaWriter returns a writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

// NewKafkaNotifier returns a KafkaNotifier over w.
func NewKafkaNotifier(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

// Notify publishes e.
func (n *KafkaNotifier) Notify(ctx context.Context, e domain.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.GoalID, 10)),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
}

// Async dispatches events in the background. Delivery failures are logged only.
type Async struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps next. Every delivery gets its own timeout.
func NewAsync(next Notifier, timeout time.Duration) *Async {
	return &Async{next: next, timeout: timeout}
}

// Notify schedules the delivery of e and returns immediately.
func (a *Async) Notify(ctx context.Context, e domain.Event) error {
	l := zerolog.Ctx(ctx).With().
		Str("event", string(e.Type)).
		Int64("goal_id", e.GoalID).
		Logger()

	a.wg.Add(1)

	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(l.WithContext(context.Background()), a.timeout)
		defer cancel()

		if err := a.next.Notify(ctx, e); err != nil {
			l.Error().Err(err).Msg("notification failed")
			return
		}

		l.Debug().Msg("notification sent")
	}()

	return nil
}

// Wait blocks until every scheduled delivery finished.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Nop discards every event.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, domain.Event) error {
	return nil
}
