package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrykit/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PROBE_TARGETS", "https://example.com/healthz")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"ENV", "HTTP_ADDR", "LOG_CONSOLE_LEVEL", "LOG_FILE_LEVEL", "JOURNAL_PATH", "RETRY_MAX_RETRIES", "RETRY_BACKOFF"} {
		t.Setenv(k, "")
	}

	c, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", c.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "info", c.Log.ConsoleLevel)
	assert.Equal(t, "debug", c.Log.FileLevel)
	assert.Equal(t, "data/journal.db", c.Journal.Path)
	assert.Equal(t, []string{"https://example.com/healthz"}, c.Probe.Targets)
	assert.Equal(t, "@every 1m", c.Probe.Schedule)
	assert.Equal(t, 3, c.Retry.MaxRetries)
	assert.Equal(t, time.Duration(0), c.Retry.Timeout)
	assert.Equal(t, 30*time.Second, c.Retry.Deadline)
	assert.Equal(t, "exponential", c.Retry.Backoff)
	assert.Equal(t, 200*time.Millisecond, c.Retry.Base)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "dev")
	t.Setenv("PROBE_TARGETS", "https://a.example.com, https://b.example.com")
	t.Setenv("RETRY_MAX_RETRIES", "-1")
	t.Setenv("RETRY_TIMEOUT", "2m")
	t.Setenv("RETRY_BACKOFF", "linear")
	t.Setenv("RETRY_STEP", "500ms")

	c, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, c.Probe.Targets)
	assert.Equal(t, -1, c.Retry.MaxRetries)
	assert.Equal(t, 2*time.Minute, c.Retry.Timeout)
	assert.Equal(t, "linear", c.Retry.Backoff)
	assert.Equal(t, 500*time.Millisecond, c.Retry.Step)
}

func TestLoadMissingTargets(t *testing.T) {
	t.Setenv("PROBE_TARGETS", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("RETRY_DEADLINE", "not-a-duration")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadInvalidBackoff(t *testing.T) {
	setRequired(t)
	t.Setenv("RETRY_BACKOFF", "fibonacci")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRandomBackoffRequiresMax(t *testing.T) {
	setRequired(t)
	t.Setenv("RETRY_BACKOFF", "random")

	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("RETRY_RANDOM_MAX", "1s")
	c, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.Retry.MaxDelay)
}
