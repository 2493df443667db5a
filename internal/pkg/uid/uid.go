// Package uid generates identifiers: snowflake numbers for database keys and
// event ids, UUID v7 strings for correlation ids and token ids.
package uid

import "github.com/google/uuid"

type NumberID interface {
	Generate() int64
}

type StringID interface {
	Generate() string
}

// UUID generates time-ordered v7 UUIDs.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

// Generate falls back to a random v4 when the v7 clock sequence cannot be read.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
