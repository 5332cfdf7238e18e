package domainrecord

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

// memStore backs both repositories and the transactor. A failed transaction
// restores the snapshot taken when it began.
type memStore struct {
	mu sync.Mutex

	records map[uuid.UUID]entity.DomainRecord
	outbox  []*entity.OutboxEntry

	outboxErr      error
	commitErr      error
	conflictsLeft  int
	updateAttempts int
	transactions   int
}

func newMemStore() *memStore {
	return &memStore{records: map[uuid.UUID]entity.DomainRecord{}}
}

func (s *memStore) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	s.mu.Lock()
	s.transactions++
	records := maps.Clone(s.records)
	outbox := slices.Clone(s.outbox)
	s.mu.Unlock()

	err := f(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil && s.commitErr != nil {
		// The writes stay: the commit landed but its reply was lost.
		return s.commitErr
	}
	if err != nil {
		s.mu.Lock()
		s.records = records
		s.outbox = outbox
		s.mu.Unlock()
	}

	return err
}

func (s *memStore) liveNameTaken(rec entity.DomainRecord) bool {
	for _, r := range s.records {
		if r.ID != rec.ID && !r.Deleted && !rec.Deleted && r.OwnerID == rec.OwnerID && r.Name == rec.Name {
			return true
		}
	}
	return false
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (entity.DomainRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return entity.DomainRecord{}, errs.ErrRecordNotFound
	}
	return rec, nil
}

func (s *memStore) GetByOwnerAndName(_ context.Context, ownerID, name string, excludeDeleted bool) (entity.DomainRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.OwnerID == ownerID && r.Name == name && (!excludeDeleted || !r.Deleted) {
			return r, nil
		}
	}
	return entity.DomainRecord{}, errs.ErrRecordNotFound
}

func (s *memStore) filtered(ownerID string, filter dto.RecordFilter) []entity.DomainRecord {
	var out []entity.DomainRecord
	for _, r := range s.records {
		if r.OwnerID != ownerID {
			continue
		}
		switch filter {
		case dto.FilterVerified:
			if r.Deleted || !r.Verified {
				continue
			}
		case dto.FilterDeleted:
			if !r.Deleted {
				continue
			}
		default:
			if r.Deleted {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func (s *memStore) ListByOwner(_ context.Context, ownerID string, filter dto.RecordFilter, page dto.Page) ([]entity.DomainRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.filtered(ownerID, filter)
	if filter == dto.FilterDeleted {
		slices.SortFunc(out, func(a, b entity.DomainRecord) int { return b.UpdatedAt.Compare(*a.UpdatedAt) })
	} else {
		slices.SortFunc(out, func(a, b entity.DomainRecord) int { return strings.Compare(a.Name, b.Name) })
	}

	if page.Take > 0 {
		if page.Skip >= len(out) {
			return nil, nil
		}
		out = out[page.Skip:min(len(out), page.Skip+page.Take)]
	}
	return out, nil
}

func (s *memStore) CountByOwner(_ context.Context, ownerID string, filter dto.RecordFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.filtered(ownerID, filter))), nil
}

func (s *memStore) Create(_ context.Context, rec entity.DomainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok || s.liveNameTaken(rec) {
		return errs.ErrDuplicate
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *memStore) Update(_ context.Context, rec entity.DomainRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateAttempts++
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return errs.ErrConcurrentUpdate
	}

	cur, ok := s.records[rec.ID]
	if !ok || cur.Version != expectedVersion {
		return errs.ErrConcurrentUpdate
	}
	if s.liveNameTaken(rec) {
		return errs.ErrDuplicate
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *memStore) CreateBatch(_ context.Context, entries []*entity.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outboxErr != nil {
		return s.outboxErr
	}
	s.outbox = append(s.outbox, entries...)
	return nil
}

func (s *memStore) ClaimPending(context.Context, uuid.UUID, int, time.Duration, time.Time) ([]*entity.OutboxEntry, error) {
	return nil, nil
}

func (s *memStore) MarkDelivered(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return nil
}

func (s *memStore) MarkRetry(context.Context, uuid.UUID, uuid.UUID, string, time.Time) error {
	return nil
}

func (s *memStore) MarkFailed(context.Context, uuid.UUID, uuid.UUID, string, time.Time) error {
	return nil
}

func (s *memStore) MarkMaxAttemptsAsFailed(context.Context, int, time.Time) (int64, error) {
	return 0, nil
}

func (s *memStore) ListExpired(context.Context, time.Time, int) ([]*entity.OutboxEntry, error) {
	return nil, nil
}

func (s *memStore) DeleteByIDs(context.Context, uuid.UUIDs) (int64, error) {
	return 0, nil
}

func (s *memStore) eventTypes() []entity.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.EventType, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, e.EventType)
	}
	return out
}

func (s *memStore) record(id uuid.UUID) entity.DomainRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records[id]
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)
	return c.now
}

type seqTokens struct {
	mu sync.Mutex
	n  int
}

func (g *seqTokens) NewToken() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	return fmt.Sprintf("token-%d", g.n), nil
}
