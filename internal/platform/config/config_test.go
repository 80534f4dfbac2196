package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WELFARE_SERVICE_KEY", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 8*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.LLM.CacheTTL)
	assert.Equal(t, "lifecycle.events", cfg.Kafka.LifecycleTopic)
	assert.False(t, cfg.Welfare.SyncActive(), "missing service key disables sync")
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.InDelta(t, 1.0, cfg.Tracing.SampleRatio, 0.0001)
	assert.Equal(t, 30, cfg.Limits.PerUser)
	assert.Equal(t, time.Minute, cfg.Limits.Window)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WELFARE_SERVICE_KEY", "key")
	t.Setenv("WELFARE_RETRY_DELAY", "2")
	t.Setenv("WELFARE_REGION_DELAY", "250ms")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("WELFARE_MAX_PAGES", "not-a-number")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")

	cfg := Load()

	assert.True(t, cfg.Welfare.SyncActive())
	assert.Equal(t, 2*time.Second, cfg.Welfare.RetryDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Welfare.RegionDelay)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 100, cfg.Welfare.MaxPages)
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRatio, 0.0001)
}
