package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	kafkapc "github.com/andreyxaxa/Domain-Service/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Domain-Service/internal/usecase"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

// EventSource is the consumer group reader the controller pulls from.
type EventSource interface {
	ReadEvent(ctx context.Context) (kafkapc.DomainEvent, error)
	CommitEvent(ctx context.Context, event kafkapc.DomainEvent) error
	Close() error
}

// KafkaController feeds domain events into the activity use case. Messages
// with the same key go to the same worker so one aggregate's events are
// applied in the order they were read. An offset is committed only after the
// event was applied or found to be a duplicate.
type KafkaController struct {
	activity usecase.ActivityUseCase
	source   EventSource
	logger   logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	retryInitial   time.Duration
	retryMax       time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	activity usecase.ActivityUseCase,
	source EventSource,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	retryInitial time.Duration,
	retryMax time.Duration,
	workers int,
) *KafkaController {
	if workers <= 0 {
		workers = 1
	}

	return &KafkaController{
		activity:       activity,
		source:         source,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		retryInitial:   retryInitial,
		retryMax:       retryMax,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// one queue per worker
	queues := make([]chan kafkapc.DomainEvent, c.workers)
	for i := range queues {
		queues[i] = make(chan kafkapc.DomainEvent, 2)

		c.wg.Add(1)
		go c.worker(queues[i])
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. read from kafka
				event, err := c.source.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.source.ReadEvent")
					}
					continue
				}

				// 2. hand over to the worker owning the key
				select {
				case queues[c.route(event.Message.Key)] <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) route(key []byte) int {
	if c.workers == 1 {
		return 0
	}

	h := fnv.New32a()
	_, _ = h.Write(key)

	return int(h.Sum32() % uint32(c.workers))
}

// handle applies one message. Transient failures are retried in place until
// they succeed or the controller stops; anything else is logged and skipped.
func (c *KafkaController) handle(event kafkapc.DomainEvent) error {
	if event.Err != nil {
		c.logger.Error(event.Err, "KafkaController - handle - undecodable message skipped")
		return nil
	}
	env := event.Envelope

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = c.retryMax

	_, err := backoff.Retry(c.ctx, func() (struct{}, error) {
		processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
		defer processCancel()

		err := c.activity.Consume(processCtx, env)
		if err != nil && !errs.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("KafkaController - handle - event %s retry in %s: %v", env.DedupKey(), next, err)
		}),
	)
	if err != nil {
		if c.ctx.Err() != nil {
			return err
		}
		c.logger.Error(err, "KafkaController - handle - c.activity.Consume")
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafkapc.DomainEvent) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
				}
			}()

			err := c.handle(event)
			if err != nil {
				// stopped before the event was applied; it is read again after restart
				return
			}

			// commit after processing
			commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.commitTimeout)
			err = c.source.CommitEvent(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.source.CommitEvent")
			}
		}()
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan error, 1)

	go func() {
		c.wg.Wait()
		done <- c.source.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("KafkaController - Shutdown - c.source.Close: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
