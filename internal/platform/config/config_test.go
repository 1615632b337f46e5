package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(DefaultMaxFileSizeBytes), cfg.Policy.MaxFileSizeBytes)
	assert.Equal(t, DefaultCooldown, cfg.Policy.Cooldown)
	assert.Equal(t, DefaultMaxResubmissions, cfg.Policy.MaxResubmissions)
	assert.Equal(t, DefaultDocumentTypes, cfg.Policy.AllowedDocumentTypes)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POLICY_COOLDOWN", "2h")
	t.Setenv("POLICY_DOCUMENT_TYPES", "Passport, Selfie ,")
	t.Setenv("KAFKA_BROKERS", "localhost:9092,localhost:9093")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Policy.Cooldown)
	assert.Equal(t, []string{"Passport", "Selfie"}, cfg.Policy.AllowedDocumentTypes)
	assert.Len(t, cfg.Kafka.Brokers, 2)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("POLICY_COOLDOWN", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "POLICY_COOLDOWN")
	})

	t.Run("production requires signing key", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "JWT_SIGNING_KEY")
	})
}
