package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	t.Setenv(key, "")
	assert.Equal(t, "9000", getEnv(key, "9000"))

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	assert.Equal(t, "8080", getEnv(key, "9000"))
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DUR", "3s")
	t.Setenv("TEST_BAD_DUR", "-1s")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 7, getEnvInt("TEST_MISSING_INT", 7))
	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.Equal(t, 3*time.Second, getEnvDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("TEST_BAD_DUR", time.Second))
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "CRON_SPEC", "OUTPUT_DIR", "TOP_N", "FETCH_RETRIES", "FETCH_TIMEOUT", "TRANSLATE_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "0 8 * * *", cfg.CronSpec)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, uint64(0), cfg.FetchRetries)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.TranslateEnabled)
}

func TestLoadReadsAuthAndPorts(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("FETCH_RETRIES", "-3")

	cfg := Load()
	assert.Equal(t, "1234", cfg.AppPort)
	assert.Equal(t, "user", cfg.BasicAuthUser)
	assert.Equal(t, "pass", cfg.BasicAuthPass)
	assert.Equal(t, uint64(0), cfg.FetchRetries, "negative retries are clamped")
}
