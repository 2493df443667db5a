package config

import (
	"io"
	"time"
)

// Config reads typed configuration values by dotted key (e.g. "app.server.http.address").
//
// Missing keys yield the zero value of the requested type; callers validate the
// values they cannot live without.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64

	// GetSecond reads an integer and interprets it as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer and interprets it as minutes.
	GetMinute(key string) time.Duration

	// GetArray reads a comma separated value (<a>,<b>,...) or a YAML list.
	// Blank elements are dropped and every element is trimmed.
	GetArray(key string) []string

	// GetMap reads a value in the form <k1>:<v1>,<k2>:<v2>.
	GetMap(key string) map[string]string
}
