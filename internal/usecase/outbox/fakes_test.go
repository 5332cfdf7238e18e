package outbox

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

type row struct {
	entry        entity.OutboxEntry
	claimToken   uuid.UUID
	claimedUntil time.Time
}

// memOutbox follows the claim rules of the Postgres repository.
type memOutbox struct {
	mu   sync.Mutex
	rows []*row

	deliveredErr error
	deleted      uuid.UUIDs
}

func (m *memOutbox) add(entries ...*entity.OutboxEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		m.rows = append(m.rows, &row{entry: *e})
	}
}

func (m *memOutbox) get(id uuid.UUID) entity.OutboxEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.entry.ID == id {
			return r.entry
		}
	}
	return entity.OutboxEntry{}
}

func (m *memOutbox) CreateBatch(_ context.Context, entries []*entity.OutboxEntry) error {
	m.add(entries...)
	return nil
}

func (m *memOutbox) ClaimPending(_ context.Context, claimToken uuid.UUID, limit int, ttl time.Duration, now time.Time) ([]*entity.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.OutboxEntry
	for _, r := range m.rows {
		if len(out) == limit {
			break
		}
		if r.entry.Status != entity.Pending || r.entry.NextAttemptAt.After(now) {
			continue
		}
		if r.claimToken != uuid.Nil && !r.claimedUntil.Before(now) {
			continue
		}
		r.claimToken = claimToken
		r.claimedUntil = now.Add(ttl)
		e := r.entry
		out = append(out, &e)
	}
	return out, nil
}

func (m *memOutbox) claimed(id, claimToken uuid.UUID) (*row, error) {
	for _, r := range m.rows {
		if r.entry.ID == id && r.claimToken == claimToken && r.entry.Status == entity.Pending {
			return r, nil
		}
	}
	return nil, errs.ErrClaimLost
}

func (m *memOutbox) MarkDelivered(_ context.Context, id, claimToken uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deliveredErr != nil {
		return m.deliveredErr
	}

	r, err := m.claimed(id, claimToken)
	if err != nil {
		return err
	}
	r.entry.Status = entity.Delivered
	r.entry.DeliveredAt = &now
	r.entry.FinishedAt = &now
	r.claimToken = uuid.Nil
	return nil
}

func (m *memOutbox) MarkRetry(_ context.Context, id, claimToken uuid.UUID, lastError string, nextAttemptAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.claimed(id, claimToken)
	if err != nil {
		return err
	}
	r.entry.AttemptCount++
	r.entry.LastError = &lastError
	r.entry.NextAttemptAt = nextAttemptAt
	r.claimToken = uuid.Nil
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id, claimToken uuid.UUID, lastError string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.claimed(id, claimToken)
	if err != nil {
		return err
	}
	r.entry.Status = entity.Failed
	r.entry.AttemptCount++
	r.entry.LastError = &lastError
	r.entry.FinishedAt = &now
	r.claimToken = uuid.Nil
	return nil
}

func (m *memOutbox) MarkMaxAttemptsAsFailed(_ context.Context, maxAttempts int, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.rows {
		if r.entry.Status == entity.Pending && r.entry.AttemptCount >= maxAttempts && r.claimToken == uuid.Nil {
			r.entry.Status = entity.Failed
			r.entry.FinishedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memOutbox) ListExpired(_ context.Context, olderThan time.Time, limit int) ([]*entity.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.OutboxEntry
	for _, r := range m.rows {
		if len(out) == limit {
			break
		}
		if r.entry.Status != entity.Pending && r.entry.FinishedAt != nil && r.entry.FinishedAt.Before(olderThan) {
			e := r.entry
			out = append(out, &e)
		}
	}
	return out, nil
}

func (m *memOutbox) DeleteByIDs(_ context.Context, ids uuid.UUIDs) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.rows)
	m.rows = slices.DeleteFunc(m.rows, func(r *row) bool { return slices.Contains(ids, r.entry.ID) })
	m.deleted = append(m.deleted, ids...)
	return int64(before - len(m.rows)), nil
}

type memArchive struct {
	keys    []string
	entries []*entity.OutboxEntry
	err     error
}

func (a *memArchive) Archive(_ context.Context, key string, entries []*entity.OutboxEntry) error {
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	a.entries = append(a.entries, entries...)
	return nil
}

// fakePublisher fails for aggregates listed in failFor.
type fakePublisher struct {
	mu        sync.Mutex
	published []entity.Envelope
	topics    []string
	failFor   map[uuid.UUID]bool
	closed    bool
}

var errBrokerDown = errors.New("broker unavailable")

func (p *fakePublisher) Publish(_ context.Context, topic string, env entity.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failFor[env.AggregateID] {
		return errBrokerDown
	}
	p.published = append(p.published, env)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.published)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
