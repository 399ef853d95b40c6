package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewkit/renewkit/pkg/config"
)

type testConfig struct {
	Addr    string        `env:"TEST_PORTAL_ADDR" envDefault:":8080"`
	Timeout time.Duration `env:"TEST_PORTAL_TIMEOUT" envDefault:"5s"`
	Token   string        `env:"TEST_PORTAL_TOKEN"`
}

type requiredConfig struct {
	Secret string `env:"TEST_PORTAL_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Empty(t, cfg.Token)
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("TEST_PORTAL_ADDR", ":9999")
		t.Setenv("TEST_PORTAL_TIMEOUT", "30s")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9999", cfg.Addr)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}
