package otpstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func runContainers() bool {
	return os.Getenv("WORKPULSE_IT") == "1"
}

// newContainerRedis runs the redis driver against a real server.
func newContainerRedis(t *testing.T, clock *fakeClock) Store {
	t.Helper()

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewRedis(client, clock, RedisOptions{MaxRetries: 500, Backoff: time.Millisecond})
	require.NoError(t, err)
	return s
}
