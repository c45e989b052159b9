package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
)

type Config struct {
	AppPort string

	// PostgresDSN 为空时只在内存里保留最近的日报
	PostgresDSN string
	RedisAddr   string

	CronSpec  string
	OutputDir string
	TopN      int

	FetchRetries uint64
	FetchTimeout time.Duration

	BasicAuthUser string
	BasicAuthPass string

	TranslateEnabled bool
	TranslateAPIKey  string

	Debug bool
}

func Load() *Config {
	cfg := &Config{
		AppPort:          getEnv("APP_PORT", "9000"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		CronSpec:         getEnv("CRON_SPEC", "0 8 * * *"),
		OutputDir:        getEnv("OUTPUT_DIR", "output"),
		TopN:             getEnvInt("TOP_N", 10),
		FetchRetries:     uint64(max(getEnvInt("FETCH_RETRIES", 0), 0)),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
		BasicAuthUser:    getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:    getEnv("APP_BASIC_PASS", ""),
		TranslateEnabled: getEnvBool("TRANSLATE_ENABLED", false),
		TranslateAPIKey:  getEnv("TRANSLATE_API_KEY", ""),
		Debug:            getEnvBool("DEBUG", false),
	}

	lgr.Printf("[DEBUG] config loaded: port=%s cron=%s output=%s top=%d retries=%d",
		cfg.AppPort, cfg.CronSpec, cfg.OutputDir, cfg.TopN, cfg.FetchRetries)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		lgr.Printf("[WARN] invalid %s=%q, use default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		lgr.Printf("[WARN] invalid %s=%q, use default %v", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		lgr.Printf("[WARN] invalid %s=%q, use default %v", key, v, def)
		return def
	}
	return d
}
