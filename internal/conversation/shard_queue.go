package conversation

import (
	"context"
	"errors"
)

var (
	// ErrShardFull is returned when the sender's shard has no free buffer.
	ErrShardFull = errors.New("conversation: dispatcher shard is full")
	// ErrDispatcherClosed is returned by Submit after Close.
	ErrDispatcherClosed = errors.New("conversation: dispatcher is closed")
)

// shardQueue is the buffered inbox of one dispatcher worker.
type shardQueue struct {
	ch chan Event
}

func newShardQueue(buffer int) *shardQueue {
	if buffer <= 0 {
		buffer = 64
	}
	return &shardQueue{
		ch: make(chan Event, buffer),
	}
}

// offer enqueues ev without waiting for buffer space.
func (q *shardQueue) offer(ctx context.Context, ev Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- ev:
		return nil
	default:
		return ErrShardFull
	}
}

func (q *shardQueue) close() {
	close(q.ch)
}

func (q *shardQueue) pending() int {
	return len(q.ch)
}
