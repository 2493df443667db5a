package config

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides: app.tz => WORKPULSE_APP_TZ.
const EnvPrefix = "WORKPULSE"

var errConfigTypeRequired = errors.New("config type is required")

type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at pathFile, its format taken from the extension,
// and logs every later write to it. Environment variables override file
// values, see EnvPrefix.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(pathFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
			slog.Info("config reloaded", "path", ev.Name, "op", ev.Op.String())
		}
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errConfigTypeRequired
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32 { return vc.v.GetInt32(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }
func (vc *Viper) GetSecond(key string) time.Duration { return vc.unit(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.unit(key, time.Minute) }

func (vc *Viper) unit(key string, d time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * d
}

func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch vc.v.Get(key).(type) {
	case nil:
		return nil
	case []any, []string:
		raw = vc.v.GetStringSlice(key)
	default:
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(raw, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// GetMap skips pairs without a colon.
func (vc *Viper) GetMap(key string) map[string]string {
	pairs := lo.FilterMap(vc.GetArray(key), func(pair string, _ int) (lo.Entry[string, string], bool) {
		k, v, ok := strings.Cut(pair, ":")
		return lo.Entry[string, string]{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)}, ok
	})
	return lo.FromEntries(pairs)
}

// Close is a no-op; the file watcher lives as long as the process.
func (vc *Viper) Close() error { return nil }
