package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	Journal struct {
		Path string `validate:"required"`
	}
	Probe struct {
		Targets  []string `validate:"required,min=1,dive,url"`
		Schedule string   `validate:"required"`
	}
	Retry struct {
		MaxRetries int           `validate:"gte=-1"`
		Timeout    time.Duration `validate:"gte=0"`
		Deadline   time.Duration `validate:"gte=0"`
		Backoff    string        `validate:"required,oneof=fixed linear exponential random"`
		Base       time.Duration `validate:"gte=0"`
		Step       time.Duration `validate:"gte=0"`
		Max        time.Duration `validate:"gte=0"`
		MinDelay   time.Duration `validate:"gte=0"`
		MaxDelay   time.Duration `validate:"gte=0"`
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.Env = getenv("ENV", "prod")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":8080")
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/retryd.log")
	c.Journal.Path = getenv("JOURNAL_PATH", "data/journal.db")
	c.Probe.Targets = splitList(os.Getenv("PROBE_TARGETS"))
	c.Probe.Schedule = getenv("PROBE_SCHEDULE", "@every 1m")

	var err error
	if c.Retry.MaxRetries, err = getint("RETRY_MAX_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if c.Retry.Timeout, err = getdur("RETRY_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if c.Retry.Deadline, err = getdur("RETRY_DEADLINE", 30*time.Second); err != nil {
		return Config{}, err
	}
	c.Retry.Backoff = strings.ToLower(getenv("RETRY_BACKOFF", "exponential"))
	if c.Retry.Base, err = getdur("RETRY_BASE_DELAY", 200*time.Millisecond); err != nil {
		return Config{}, err
	}
	if c.Retry.Step, err = getdur("RETRY_STEP", 0); err != nil {
		return Config{}, err
	}
	if c.Retry.Max, err = getdur("RETRY_MAX_DELAY_CAP", 5*time.Second); err != nil {
		return Config{}, err
	}
	if c.Retry.MinDelay, err = getdur("RETRY_RANDOM_MIN", 0); err != nil {
		return Config{}, err
	}
	if c.Retry.MaxDelay, err = getdur("RETRY_RANDOM_MAX", 0); err != nil {
		return Config{}, err
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.Retry.Backoff == "random" && c.Retry.MaxDelay <= 0 {
		return Config{}, fmt.Errorf("RETRY_RANDOM_MAX required for random backoff")
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getdur(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
