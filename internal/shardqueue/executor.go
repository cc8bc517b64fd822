// Package shardqueue provides a per-key FIFO executor: jobs submitted under
// the same key always run on the same shard, in submission order. The journal
// engine uses it to serialize writes to the same journal id.
package shardqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

type item struct {
	ctx context.Context
	job Job
}

// ShardExecutor owns a fixed set of worker goroutines, one per shard, each
// draining a bounded queue. The queues are never closed; Stop signals the
// done channel so a Submit racing against shutdown can never send on a
// closed channel.
type ShardExecutor struct {
	cfg    Config
	queues []chan item

	done   chan struct{} // closed in Stop
	closed uint32        // 0 running, 1 stopped
	wg     sync.WaitGroup
}

// New creates a ShardExecutor and starts its workers.
func New(cfg Config) *ShardExecutor {
	if cfg.Shards <= 0 {
		cfg.Shards = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}

	ex := &ShardExecutor{
		cfg:    cfg,
		queues: make([]chan item, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := range ex.queues {
		ex.queues[i] = make(chan item, cfg.QueueSize)
		ex.wg.Add(1)
		go ex.worker(i)
	}
	return ex
}

// NewDefault creates an executor from environment configuration.
func NewDefault() (*ShardExecutor, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

func (ex *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(ex.cfg.Shards))
}

// Submit enqueues job under key. Jobs with equal keys run in FIFO order.
// Returns a QueueFullError when the shard stays full past the enqueue
// timeout, ErrExecutorClosed after Stop.
func (ex *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	if atomic.LoadUint32(&ex.closed) == 1 {
		return ErrExecutorClosed
	}
	// The flag change may not be visible yet; the done channel is.
	select {
	case <-ex.done:
		return ErrExecutorClosed
	default:
	}

	shard := ex.shardFor(key)
	q := ex.queues[shard]

	timer := time.NewTimer(ex.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case q <- item{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-ex.done: // Stop may arrive while waiting for space
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(q), Capacity: cap(q)}
	}
}

// Stop signals the workers, waits for them to drain every already-accepted
// job, and returns. Idempotent and safe for concurrent use with Submit.
func (ex *ShardExecutor) Stop() {
	if !atomic.CompareAndSwapUint32(&ex.closed, 0, 1) {
		return
	}
	close(ex.done)
	ex.wg.Wait()
}

func (ex *ShardExecutor) worker(shard int) {
	defer ex.wg.Done()
	label := labelFor(shard)
	q := ex.queues[shard]

	for {
		select {
		case it := <-q:
			ex.run(label, q, it)
		case <-ex.done:
			// Drain what was accepted before Stop, preserving FIFO.
			for {
				select {
				case it := <-q:
					ex.run(label, q, it)
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

func (ex *ShardExecutor) run(label string, q chan item, it item) {
	queueDepth.WithLabelValues(label).Set(float64(len(q)))

	// A job whose submission context died before it reached the front of
	// the queue is skipped, not run against a dead context.
	if err := it.ctx.Err(); err != nil {
		return
	}

	start := time.Now()
	err := it.job.Run(it.ctx)
	runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil && ex.cfg.ErrorHandler != nil {
		ex.cfg.ErrorHandler(err)
	}
}
