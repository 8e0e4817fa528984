package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore is a Store shared across instances. Each sender's state is a
// JSON value under smartbot:state:{sender}.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. A ttl of zero keeps states until cleared.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("smartbot.internal.conversation.state")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		redis:  client,
		tracer: tracer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, sender string) (State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.get_state")
	defer span.End()

	st, err := s.load(ctx, sender)
	if err != nil {
		span.RecordError(err)
		return State{Sender: sender}, err
	}
	return st, nil
}

// Patch reads, merges and writes inside a WATCH transaction so a concurrent
// writer on another instance forces a retry instead of a lost update.
func (s *RedisStore) Patch(ctx context.Context, sender string, p Patch) (State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.patch_state")
	defer span.End()

	key := stateKey(sender)
	var out State
	txf := func(tx *redis.Tx) error {
		st, err := decodeState(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		st.Sender = sender
		st = ApplyPatch(st, p, s.now())
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("conversation: failed to marshal state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		out = st
		return err
	}

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.redis.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		span.RecordError(err)
		return State{Sender: sender}, fmt.Errorf("conversation: failed to persist state: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, sender string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.clear_state")
	defer span.End()

	if err := s.redis.Del(ctx, stateKey(sender)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to delete state: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, sender string) (State, error) {
	st, err := decodeState(s.redis.Get(ctx, stateKey(sender)).Bytes())
	if err != nil {
		return State{Sender: sender}, err
	}
	st.Sender = sender
	return st, nil
}

func decodeState(data []byte, err error) (State, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("conversation: failed to load state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("conversation: failed to decode state: %w", err)
	}
	return st, nil
}

func stateKey(sender string) string {
	return fmt.Sprintf("smartbot:state:%s", sender)
}
