package config

import (
  "fmt"
  "time"

  "github.com/go-playground/validator/v10"
  "github.com/ilyakaznacheev/cleanenv"
  "github.com/joho/godotenv"
  log "github.com/sirupsen/logrus"
)

const (
  DeliveryPolling = "polling"
  DeliveryWebhook = "webhook"
)

// Config is sourced from the environment. Missing required values stop
// the process at startup: the bot never runs partially configured.
type Config struct {
  Env string `env:"ENV" env-default:"DEV"`

  TelegramToken string `env:"TELEGRAM_TOKEN" env-required:"true"`
  AdminChatId   int64  `env:"ADMIN_CHAT_ID" env-required:"true"`

  SheetWebhookURL string `env:"SHEET_WEBHOOK_URL" env-required:"true" validate:"url"`

  ImghostCloud     string `env:"IMGHOST_CLOUD" env-required:"true"`
  ImghostAPIKey    string `env:"IMGHOST_API_KEY" env-required:"true"`
  ImghostAPISecret string `env:"IMGHOST_API_SECRET" env-required:"true"`

  UpiID          string `env:"UPI_ID" env-required:"true"`
  SupportContact string `env:"SUPPORT_CONTACT" env-default:"@subsplit_support"`
  CancelEnabled  bool   `env:"CANCEL_ENABLED" env-default:"true"`

  DeliveryMode  string `env:"DELIVERY_MODE" env-default:"polling" validate:"oneof=polling webhook"`
  PublicBaseURL string `env:"PUBLIC_BASE_URL" validate:"omitempty,url"`
  WebhookSecret string `env:"WEBHOOK_SECRET"`

  HTTPAddress   string        `env:"HTTP_ADDRESS" env-default:":8080"`
  SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"1h"`
  SweepInterval time.Duration `env:"SWEEP_INTERVAL" env-default:"1h"`
}

func Load() (*Config, error) {
  _ = godotenv.Load()

  var cfg Config

  if err := cleanenv.ReadEnv(&cfg); err != nil {
    return nil, fmt.Errorf("cleanenv.ReadEnv: %w", err)
  }

  if err := validator.New().Struct(cfg); err != nil {
    return nil, fmt.Errorf("validator.Struct: %w", err)
  }

  if cfg.DeliveryMode == DeliveryWebhook {
    if cfg.PublicBaseURL == "" || cfg.WebhookSecret == "" {
      return nil, fmt.Errorf("webhook delivery requires PUBLIC_BASE_URL and WEBHOOK_SECRET")
    }
  }

  return &cfg, nil
}

func MustLoad() *Config {
  cfg, err := Load()
  if err != nil {
    log.Fatalf("config.Load: %v", err)
  }

  return cfg
}
