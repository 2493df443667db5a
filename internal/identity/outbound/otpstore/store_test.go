package otpstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpulse/workpulse/internal/identity/entity"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type storeFactory func(t *testing.T, clock *fakeClock) Store

func storeDrivers() map[string]storeFactory {
	drivers := map[string]storeFactory{
		DriverMemory: func(t *testing.T, clock *fakeClock) Store {
			return NewMemory(clock)
		},
		DriverRedis: func(t *testing.T, clock *fakeClock) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })

			s, err := NewRedis(client, clock, RedisOptions{MaxRetries: 500, Backoff: time.Millisecond})
			require.NoError(t, err)
			return s
		},
	}
	if runContainers() {
		drivers["redis-container"] = newContainerRedis
	}
	return drivers
}

func read(t *testing.T, s Store, key string) entity.OTPRecord {
	t.Helper()
	var got entity.OTPRecord
	require.NoError(t, s.Update(context.Background(), key, func(rec *entity.OTPRecord) error {
		got = *rec
		return nil
	}))
	return got
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeDrivers() {
		t.Run(name, func(t *testing.T) {
			t.Run("absent key reads as zero record", func(t *testing.T) {
				s := factory(t, newFakeClock())
				assert.Equal(t, entity.OTPRecord{}, read(t, s, "k"))
			})

			t.Run("persists mutations", func(t *testing.T) {
				clock := newFakeClock()
				s := factory(t, clock)

				require.NoError(t, s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
					rec.Issue("hash", entity.OTPReasonForgotPassword, clock.Now(), 5*time.Minute, 30*time.Second)
					return nil
				}))

				got := read(t, s, "k")
				assert.Equal(t, "hash", got.CodeHash)
				assert.Equal(t, entity.OTPReasonForgotPassword, got.Reason)
				assert.True(t, got.IssuedAt.Equal(clock.Now()))
			})

			t.Run("error discards mutation", func(t *testing.T) {
				clock := newFakeClock()
				s := factory(t, clock)
				require.NoError(t, s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
					rec.Issue("first", "", clock.Now(), time.Minute, time.Second)
					return nil
				}))

				boom := errors.New("rate limited")
				err := s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
					rec.CodeHash = "second"
					return boom
				})
				require.ErrorIs(t, err, boom)
				assert.Equal(t, "first", read(t, s, "k").CodeHash)
			})

			t.Run("keys are independent", func(t *testing.T) {
				clock := newFakeClock()
				s := factory(t, clock)
				require.NoError(t, s.Update(ctx, "a", func(rec *entity.OTPRecord) error {
					rec.Issue("ha", "", clock.Now(), time.Minute, time.Second)
					return nil
				}))

				assert.Empty(t, read(t, s, "b").CodeHash)
				assert.Equal(t, "ha", read(t, s, "a").CodeHash)
			})

			t.Run("expired record reads as zero", func(t *testing.T) {
				clock := newFakeClock()
				s := factory(t, clock)
				require.NoError(t, s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
					rec.Issue("hash", "", clock.Now(), time.Minute, 30*time.Second)
					return nil
				}))

				clock.Advance(time.Minute + time.Second)
				assert.Equal(t, entity.OTPRecord{}, read(t, s, "k"))
			})

			t.Run("record survives its expiry instant", func(t *testing.T) {
				clock := newFakeClock()
				s := factory(t, clock)
				require.NoError(t, s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
					rec.Grant(clock.Now(), 10*time.Minute)
					return nil
				}))

				clock.Advance(10 * time.Minute)
				rec := read(t, s, "k")
				assert.True(t, rec.HasSession(clock.Now()))
			})

			t.Run("serializes concurrent updates", func(t *testing.T) {
				clock := newFakeClock()
				s := factory(t, clock)
				require.NoError(t, s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
					rec.Issue("hash", "", clock.Now(), time.Hour, time.Hour)
					return nil
				}))

				const n = 20
				var wg sync.WaitGroup
				for range n {
					wg.Go(func() {
						assert.NoError(t, s.Update(ctx, "k", func(rec *entity.OTPRecord) error {
							rec.CodeHash += "+"
							return nil
						}))
					})
				}
				wg.Wait()

				assert.Len(t, read(t, s, "k").CodeHash, len("hash")+n)
			})
		})
	}
}

func TestMemorySweep(t *testing.T) {
	clock := newFakeClock()
	s := NewMemory(clock)
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		require.NoError(t, s.Update(ctx, k, func(rec *entity.OTPRecord) error {
			rec.Issue("h", "", clock.Now(), time.Minute, time.Second)
			return nil
		}))
	}
	require.NoError(t, s.Update(ctx, "c", func(rec *entity.OTPRecord) error {
		rec.Grant(clock.Now(), time.Hour)
		return nil
	}))
	assert.Equal(t, 3, s.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestMemoryJanitor(t *testing.T) {
	clock := newFakeClock()
	s := NewMemory(clock)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Update(ctx, "a", func(rec *entity.OTPRecord) error {
		rec.Issue("h", "", clock.Now(), time.Minute, time.Second)
		return nil
	}))
	clock.Advance(2 * time.Minute)

	done := make(chan error, 1)
	go func() { done <- s.RunJanitor(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestMemoryDropsEmptyRecords(t *testing.T) {
	s := NewMemory(newFakeClock())
	_ = read(t, s, "k")
	assert.Zero(t, s.Len())
}

func TestRedisTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	s, err := NewRedis(client, clock, RedisOptions{Prefix: "test:"})
	require.NoError(t, err)

	require.NoError(t, s.Update(context.Background(), "k", func(rec *entity.OTPRecord) error {
		rec.Issue("h", "", clock.Now(), 5*time.Minute, 30*time.Second)
		return nil
	}))
	assert.Equal(t, 5*time.Minute+time.Second, mr.TTL("test:k"))

	require.NoError(t, s.Update(context.Background(), "k", func(rec *entity.OTPRecord) error {
		*rec = entity.OTPRecord{}
		return nil
	}))
	assert.False(t, mr.Exists("test:k"))
}

func TestNew(t *testing.T) {
	s, err := New("", newFakeClock(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = New(DriverRedis, newFakeClock(), Options{})
	require.ErrorIs(t, err, ErrRedisClientRequired)

	_, err = New("etcd", newFakeClock(), Options{})
	require.ErrorIs(t, err, ErrUnknownDriver)
}
