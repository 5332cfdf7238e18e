package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	kafkapc "github.com/andreyxaxa/Domain-Service/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

type chanSource struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newChanSource() *chanSource {
	return &chanSource{msgs: make(chan kafka.Message, 16)}
}

func (s *chanSource) ReadEvent(ctx context.Context) (kafkapc.DomainEvent, error) {
	select {
	case m := <-s.msgs:
		return kafkapc.NewDomainEvent(m), nil
	case <-ctx.Done():
		return kafkapc.DomainEvent{}, ctx.Err()
	}
}

func (s *chanSource) CommitEvent(_ context.Context, e kafkapc.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committed = append(s.committed, e.Message.Offset)
	return nil
}

func (s *chanSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *chanSource) commits() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int64(nil), s.committed...)
}

type recordingActivity struct {
	mu       sync.Mutex
	seen     []entity.Envelope
	failures map[int64]int
	err      error
}

func (a *recordingActivity) Consume(_ context.Context, env entity.Envelope) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failures[env.ProducerSequence] > 0 {
		a.failures[env.ProducerSequence]--
		return a.err
	}
	a.seen = append(a.seen, env)
	return nil
}

func (a *recordingActivity) Feed(context.Context, uuid.UUID, int) ([]dto.ActivityItem, error) {
	return nil, nil
}

func (a *recordingActivity) sequences() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]int64, 0, len(a.seen))
	for _, e := range a.seen {
		out = append(out, e.ProducerSequence)
	}
	return out
}

func message(t *testing.T, offset int64, aggregate uuid.UUID, seq int64) kafka.Message {
	t.Helper()

	msg, err := kafkapc.NewMessage("domain-events", entity.Envelope{
		EventID:          uuid.New(),
		EventType:        entity.EventRenamed,
		AggregateID:      aggregate,
		Payload:          json.RawMessage(`{}`),
		OccurredAt:       time.Now().UTC(),
		ProducerSequence: seq,
	})
	require.NoError(t, err)
	msg.Offset = offset

	return msg
}

func start(t *testing.T, activity *recordingActivity, source *chanSource, workers int) *KafkaController {
	t.Helper()

	c := New(activity, source, logger.NewNop(), time.Second, time.Second, time.Millisecond, 5*time.Millisecond, workers)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	return c
}

func TestKafkaController_ConsumesInKeyOrderAndCommits(t *testing.T) {
	activity := &recordingActivity{}
	source := newChanSource()
	start(t, activity, source, 4)

	agg := uuid.New()
	for i := int64(1); i <= 5; i++ {
		source.msgs <- message(t, i, agg, i)
	}

	assert.Eventually(t, func() bool { return len(source.commits()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, activity.sequences())
}

func TestKafkaController_RetriesTransientFailures(t *testing.T) {
	activity := &recordingActivity{
		failures: map[int64]int{1: 2},
		err:      errs.Unavailable(errors.New("redis down")),
	}
	source := newChanSource()
	start(t, activity, source, 1)

	source.msgs <- message(t, 7, uuid.New(), 1)

	assert.Eventually(t, func() bool { return len(source.commits()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1}, activity.sequences())
}

func TestKafkaController_SkipsPoisonMessages(t *testing.T) {
	activity := &recordingActivity{
		failures: map[int64]int{2: 1},
		err:      errs.ErrUnknownEventType,
	}
	source := newChanSource()
	start(t, activity, source, 1)

	source.msgs <- kafka.Message{Offset: 1, Value: []byte("not json")}
	source.msgs <- message(t, 2, uuid.New(), 2)
	source.msgs <- message(t, 3, uuid.New(), 3)

	assert.Eventually(t, func() bool { return len(source.commits()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{3}, activity.sequences())
}

func TestKafkaController_ShutdownClosesSource(t *testing.T) {
	source := newChanSource()
	c := New(&recordingActivity{}, source, logger.NewNop(), time.Second, time.Second, time.Millisecond, time.Millisecond, 2)

	require.NoError(t, c.Start(context.Background()))
	require.Error(t, c.Start(context.Background()))
	require.NoError(t, c.Shutdown(context.Background()))

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.True(t, source.closed)
}

func TestKafkaController_RouteIsStable(t *testing.T) {
	c := New(&recordingActivity{}, newChanSource(), logger.NewNop(), time.Second, time.Second, time.Millisecond, time.Millisecond, 8)
	key := []byte(uuid.NewString())

	first := c.route(key)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.route(key))
	}
	assert.Less(t, first, 8)
}
