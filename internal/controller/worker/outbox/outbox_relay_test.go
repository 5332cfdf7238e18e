package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
)

type countingOutbox struct {
	dispatched atomic.Int32
	swept      atomic.Int32
	cleaned    atomic.Int32
	deadlines  atomic.Int32
}

func (o *countingOutbox) DispatchBatch(ctx context.Context) (dto.DispatchStats, error) {
	if _, ok := ctx.Deadline(); ok {
		o.deadlines.Add(1)
	}
	o.dispatched.Add(1)
	return dto.DispatchStats{Claimed: 1, Delivered: 1}, nil
}

func (o *countingOutbox) MarkMaxAttemptsAsFailed(context.Context) error {
	o.swept.Add(1)
	return errors.New("db down")
}

func (o *countingOutbox) CleanupOutbox(context.Context) error {
	o.cleaned.Add(1)
	return nil
}

type closingPublisher struct {
	closed atomic.Bool
}

func (p *closingPublisher) Publish(context.Context, string, entity.Envelope) error { return nil }

func (p *closingPublisher) Close() error {
	p.closed.Store(true)
	return nil
}

func newRelay(o *countingOutbox, p *closingPublisher) *OutboxRelay {
	return New(o, p, logger.NewNop(), 5*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond, time.Second)
}

func TestOutboxRelay_RunsAllLoops(t *testing.T) {
	o := &countingOutbox{}
	p := &closingPublisher{}
	r := newRelay(o, p)

	require.NoError(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return o.dispatched.Load() > 1 && o.swept.Load() > 1 && o.cleaned.Load() > 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Shutdown(context.Background()))
	assert.True(t, p.closed.Load())
	assert.Equal(t, o.dispatched.Load(), o.deadlines.Load(), "every batch runs under a timeout")

	stopped := o.dispatched.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, o.dispatched.Load(), "no work after shutdown")
}

func TestOutboxRelay_StartTwice(t *testing.T) {
	r := newRelay(&countingOutbox{}, &closingPublisher{})

	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	require.Error(t, r.Start(context.Background()))
}

func TestOutboxRelay_ShutdownWithoutStart(t *testing.T) {
	p := &closingPublisher{}
	r := newRelay(&countingOutbox{}, p)

	require.NoError(t, r.Shutdown(context.Background()))
	assert.False(t, p.closed.Load())
}
