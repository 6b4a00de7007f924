package config

import (
  "os"
  "testing"
  "time"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
  t.Helper()

  t.Setenv("TELEGRAM_TOKEN", "123:abc")
  t.Setenv("ADMIN_CHAT_ID", "999")
  t.Setenv("SHEET_WEBHOOK_URL", "https://script.google.test/exec")
  t.Setenv("IMGHOST_CLOUD", "demo")
  t.Setenv("IMGHOST_API_KEY", "key")
  t.Setenv("IMGHOST_API_SECRET", "secret")
  t.Setenv("UPI_ID", "subsplit@upi")
}

func TestLoadDefaults(t *testing.T) {
  setRequiredEnv(t)

  cfg, err := Load()
  require.NoError(t, err)

  assert.Equal(t, int64(999), cfg.AdminChatId)
  assert.Equal(t, "@subsplit_support", cfg.SupportContact)
  assert.True(t, cfg.CancelEnabled)
  assert.Equal(t, DeliveryPolling, cfg.DeliveryMode)
  assert.Equal(t, ":8080", cfg.HTTPAddress)
  assert.Equal(t, time.Hour, cfg.SessionTTL)
  assert.Equal(t, time.Hour, cfg.SweepInterval)
}

func TestLoadMissingRequired(t *testing.T) {
  setRequiredEnv(t)

  // t.Setenv registered the restore, Unsetenv makes the variable absent.
  require.NoError(t, os.Unsetenv("TELEGRAM_TOKEN"))

  _, err := Load()
  assert.Error(t, err)
}

func TestLoadRejectsBadWebhookURL(t *testing.T) {
  setRequiredEnv(t)
  t.Setenv("SHEET_WEBHOOK_URL", "not a url")

  _, err := Load()
  assert.Error(t, err)
}

func TestLoadWebhookModeRequiresPublicURL(t *testing.T) {
  setRequiredEnv(t)
  t.Setenv("DELIVERY_MODE", "webhook")

  _, err := Load()
  require.Error(t, err)
  assert.Contains(t, err.Error(), "PUBLIC_BASE_URL")
}

func TestLoadWebhookMode(t *testing.T) {
  setRequiredEnv(t)
  t.Setenv("DELIVERY_MODE", "webhook")
  t.Setenv("PUBLIC_BASE_URL", "https://bot.subsplit.test")
  t.Setenv("WEBHOOK_SECRET", "s3cret")

  cfg, err := Load()
  require.NoError(t, err)

  assert.Equal(t, DeliveryWebhook, cfg.DeliveryMode)
  assert.Equal(t, "s3cret", cfg.WebhookSecret)
}

func TestLoadRejectsUnknownDeliveryMode(t *testing.T) {
  setRequiredEnv(t)
  t.Setenv("DELIVERY_MODE", "carrier-pigeon")

  _, err := Load()
  assert.Error(t, err)
}
