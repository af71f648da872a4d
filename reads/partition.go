package reads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/abruijn/internal/resource"
)

// readOverhead approximates the per-record bookkeeping of a queued read.
const readOverhead = 64

// PartitionOption configures Partition.
type PartitionOption func(*partitioner)

// WithController reserves the memory of reads queued for other shards on rc.
// A read that does not fit fails the pulling shard with
// resource.ErrMemoryLimitExceeded instead of growing the queue.
func WithController(rc *resource.Controller) PartitionOption {
	return func(p *partitioner) { p.rc = rc }
}

// Partition splits s into n shards. Record i goes to shard i%n, so the
// assignment is independent of the order in which shards are consumed.
// Records read on behalf of one shard are queued for their owners; the
// shards may be consumed concurrently. The shards cannot be reset.
func Partition(s Stream, n int, opts ...PartitionOption) []Stream {
	if n <= 1 {
		return []Stream{s}
	}
	p := &partitioner{src: s, queues: make([][]Read, n)}
	for _, opt := range opts {
		opt(p)
	}
	out := make([]Stream, n)
	for i := range out {
		out[i] = &shard{p: p, id: i}
	}
	return out
}

type partitioner struct {
	mu     sync.Mutex
	src    Stream
	rc     *resource.Controller
	next   int
	queues [][]Read
	err    error
}

func (p *partitioner) pull(ctx context.Context, id int) (Read, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if q := p.queues[id]; len(q) > 0 {
			r := q[0]
			q[0] = Read{}
			p.queues[id] = q[1:]
			p.rc.ReleaseMemory(queuedBytes(r))
			return r, nil
		}
		if p.err != nil {
			return Read{}, p.err
		}
		r, err := p.src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.err = io.EOF
			}
			return Read{}, err
		}
		owner := p.next % len(p.queues)
		p.next++
		if owner == id {
			return r, nil
		}
		if err := p.rc.AcquireMemory(queuedBytes(r)); err != nil {
			p.err = fmt.Errorf("queue read %q for shard %d: %w", r.Name, owner, err)
			return Read{}, p.err
		}
		p.queues[owner] = append(p.queues[owner], r)
	}
}

// queuedBytes is the reservation held for r while it waits in a queue.
func queuedBytes(r Read) int64 {
	n := int64(readOverhead + len(r.Name) + (r.Seq.Len()+3)/4)
	if r.Mate != nil {
		n += queuedBytes(*r.Mate)
	}
	return n
}

type shard struct {
	p  *partitioner
	id int
}

func (s *shard) Next(ctx context.Context) (Read, error) { return s.p.pull(ctx, s.id) }

func (s *shard) Reset() error { return ErrResetUnsupported }
