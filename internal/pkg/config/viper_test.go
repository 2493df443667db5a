package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  tz: UTC
  server:
    cors: "http://a.test, ,http://b.test"
modules:
  identity:
    enabled: true
    otp:
      ttl_seconds: 300
      cooldown_seconds: 30
    roles:
      policies:
        - admin:password:reset
        - admin:password:update
labels: "team:hr, env : dev,broken"
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.GetString("app.tz"))
	assert.True(t, cfg.GetBool("modules.identity.enabled"))
	assert.Equal(t, 5*time.Minute, cfg.GetSecond("modules.identity.otp.ttl_seconds"))
	assert.Equal(t, 30, cfg.GetInt("modules.identity.otp.cooldown_seconds"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"admin:password:reset", "admin:password:update"}, cfg.GetArray("modules.identity.roles.policies"))
	assert.Equal(t, map[string]string{"team": "hr", "env": "dev"}, cfg.GetMap("labels"))
	assert.Nil(t, cfg.GetArray("does.not.exist"))
	assert.NoError(t, cfg.Close())
}

func TestViperFromBytesEnvOverride(t *testing.T) {
	t.Setenv("WORKPULSE_APP_TZ", "Asia/Jakarta")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "Asia/Jakarta", cfg.GetString("app.tz"))
}

func TestViperFromBytesErrors(t *testing.T) {
	_, err := NewViperFromBytes("", []byte(sampleYAML))
	require.ErrorIs(t, err, errConfigTypeRequired)

	_, err = NewViperFromBytes("yaml", []byte("app: [unclosed"))
	require.Error(t, err)
}

func TestNewViperFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "workpulse.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sampleYAML), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.GetInt("modules.identity.otp.ttl_seconds"))

	_, err = NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
