package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}

	w.msgs = append(w.msgs, msgs...)

	return nil
}

func testEvent() domain.Event {
	return domain.Event{
		Type:          domain.EventDepositRecorded,
		Owner:         "alice",
		GoalID:        42,
		TransactionID: 7,
		OccurredAt:    time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaNotifier(t *testing.T) {
	w := &recordingWriter{}
	e := testEvent()

	require.NoError(t, NewKafkaNotifier(w).Notify(context.Background(), e))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "42", string(msg.Key))
	require.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte("deposit.recorded")}}, msg.Headers)

	var got domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, e.Type, got.Type)
	require.Equal(t, e.GoalID, got.GoalID)
	require.Equal(t, e.TransactionID, got.TransactionID)
}

func TestKafkaNotifierWriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}

	err := NewKafkaNotifier(w).Notify(context.Background(), testEvent())
	require.EqualError(t, err, "broker down")
}

type blockingNotifier struct {
	done chan error
}

func (n *blockingNotifier) Notify(ctx context.Context, _ domain.Event) error {
	<-ctx.Done()
	n.done <- ctx.Err()

	return ctx.Err()
}

func TestAsyncDoesNotBlockOrFail(t *testing.T) {
	next := &blockingNotifier{done: make(chan error, 1)}
	a := NewAsync(next, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	start := time.Now()
	require.NoError(t, a.Notify(ctx, testEvent()))
	require.Less(t, time.Since(start), 20*time.Millisecond)

	// The delivery outlives the caller's context and ends on its own timeout.
	cancel()
	a.Wait()
	require.ErrorIs(t, <-next.done, context.DeadlineExceeded)
}

func TestAsyncDelivers(t *testing.T) {
	w := &recordingWriter{}
	a := NewAsync(NewKafkaNotifier(w), time.Second)

	require.NoError(t, a.Notify(context.Background(), testEvent()))
	a.Wait()
	require.Len(t, w.msgs, 1)
}
