// Package testsupport holds helpers for integration tests that need live
// infrastructure. Tests skip themselves when the environment is missing.
package testsupport

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"sentimenttracker/internal/adapters/config"
)

// IntegrationConfigs bundles config sections required for integration tests.
type IntegrationConfigs struct {
	Redis config.RedisConfig
	Kafka config.KafkaConfig
}

// RequireRedis returns the Redis config from the environment, skipping the
// test when REDIS_HOST is unset.
func RequireRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	cfg := load()
	if !cfg.Redis.Enabled() {
		t.Skip("integration environment missing, set REDIS_HOST to run")
	}
	return cfg.Redis
}

// RequireKafka returns the Kafka config from the environment, skipping the
// test when KAFKA_BROKERS is unset.
func RequireKafka(t *testing.T) config.KafkaConfig {
	t.Helper()
	cfg := load()
	if !cfg.Kafka.Enabled() {
		t.Skip("integration environment missing, set KAFKA_BROKERS to run")
	}
	return cfg.Kafka
}

func load() IntegrationConfigs {
	var brokers []string
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return IntegrationConfigs{
		Redis: config.RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     intValue("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intValue("REDIS_TEST_DB", 15),
		},
		Kafka: config.KafkaConfig{
			Brokers: brokers,
			Topic:   valueWithDefault("KAFKA_TEST_TOPIC", UniqueName("sentiment.runs.test")),
		},
	}
}

func valueWithDefault(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func intValue(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}

	return fallback
}
