package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeMonotonic(t *testing.T) {
	gen, err := NewSnowflakeNode(7)
	require.NoError(t, err)

	prev := gen.Generate()
	for range 1000 {
		next := gen.Generate()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestSnowflakeInvalidNode(t *testing.T) {
	_, err := NewSnowflakeNode(4096)
	require.Error(t, err)

	gen, err := NewSnowflake()
	require.NoError(t, err)
	assert.Positive(t, gen.Generate())
}

func TestUUIDVersion7(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
