package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Log.Path = t.TempDir()
	return cfg
}

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())
}

func TestPublisherConfigValidate(t *testing.T) {
	t.Run("interval below one second", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.Interval = 500 * time.Millisecond
		assert.ErrorContains(t, cfg.Validate(), "publisher.interval")
	})

	t.Run("interval above one hour", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.Interval = 2 * time.Hour
		assert.ErrorContains(t, cfg.Validate(), "publisher.interval")
	})

	t.Run("dimension without value", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.Dimensions = []string{"Environment"}
		assert.ErrorContains(t, cfg.Validate(), "Name=Value")
	})

	t.Run("duplicate dimension name", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.Dimensions = []string{"Env=a", "Env=b"}
		assert.ErrorContains(t, cfg.Validate(), "duplicate dimension")
	})

	t.Run("too many dimensions", func(t *testing.T) {
		cfg := validConfig(t)
		for i := 0; i < maxDimensions+1; i++ {
			cfg.Publisher.Dimensions = append(cfg.Publisher.Dimensions, "D"+string(rune('a'+i))+"=v")
		}
		assert.ErrorContains(t, cfg.Validate(), "at most")
	})

	t.Run("valid dimensions", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.Dimensions = []string{"Environment=production", "Region=us-east-1"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("leader election needs a lock key", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.LeaderElection = true
		cfg.Publisher.LeaderLockKey = "  "
		assert.ErrorContains(t, cfg.Validate(), "leader_lock_key")
	})

	t.Run("leader lock ttl too short", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Publisher.LeaderElection = true
		cfg.Publisher.LeaderLockTTL = time.Second
		assert.ErrorContains(t, cfg.Validate(), "leader_lock_ttl")
	})
}

func TestRedisConfigValidate(t *testing.T) {
	cfg := validConfig(t)
	cfg.Redis.Addr = "not-an-addr"
	assert.Error(t, cfg.Validate())
}

func TestServerConfigValidate(t *testing.T) {
	t.Run("bad addr rejected when enabled", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Server.Addr = "0.0.0.0"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bare port accepted", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Server.Addr = ":9090"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLogConfigValidate(t *testing.T) {
	t.Run("unknown level rejected", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Log.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown format rejected", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Log.Format = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing directory is created", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Log.Path = t.TempDir() + "/nested/logs"
		assert.NoError(t, cfg.Validate())
	})
}
