package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/workpulse/workpulse/internal/identity/entity"
)

// ErrRedisClientRequired is returned when the redis driver has no client.
var ErrRedisClientRequired = errors.New("otpstore: redis client is required")

type RedisOptions struct {
	Client redis.UniversalClient
	// Prefix is prepended to every flow key. Defaults to "otp:".
	Prefix string
	// MaxRetries bounds optimistic-lock retries per Update. Defaults to 10.
	MaxRetries uint64
	// Backoff is the constant delay between retries. Defaults to 5ms.
	Backoff time.Duration
}

// Redis is a Store shared by every instance of the service. Updates run as
// WATCH/MULTI transactions and are retried when the key changes underneath.
type Redis struct {
	client     redis.UniversalClient
	clock      clocker
	prefix     string
	maxRetries uint64
	backoff    time.Duration
}

func NewRedis(client redis.UniversalClient, clock clocker, opts RedisOptions) (*Redis, error) {
	if client == nil {
		return nil, ErrRedisClientRequired
	}

	s := &Redis{
		client:     client,
		clock:      clock,
		prefix:     opts.Prefix,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
	if s.prefix == "" {
		s.prefix = "otp:"
	}
	if s.maxRetries == 0 {
		s.maxRetries = 10
	}
	if s.backoff <= 0 {
		s.backoff = 5 * time.Millisecond
	}

	return s, nil
}

func (s *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	rk := s.prefix + key

	txf := func(tx *redis.Tx) error {
		now := s.clock.Now()

		var rec entity.OTPRecord
		raw, err := tx.Get(ctx, rk).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("otpstore: decode record: %w", err)
			}
			if rec.IsExpired(now) {
				rec = entity.OTPRecord{}
			}
		}

		if err := fn(&rec); err != nil {
			return err
		}

		if rec.IsExpired(now) {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, rk)
				return nil
			})
			return err
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		// Keep the key through the Horizon instant itself.
		ttl := rec.Horizon().Sub(now) + time.Second
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, ttl)
			return nil
		})
		return err
	}

	err := retry.Do(ctx, retry.WithMaxRetries(s.maxRetries, retry.NewConstant(s.backoff)), func(ctx context.Context) error {
		err := s.client.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return ErrContention
	}

	return err
}
