package main

import (
  "context"
  "fmt"
  "net/http"
  "os/signal"
  "syscall"
  "time"

  "github.com/go-resty/resty/v2"
  tgbot "github.com/go-telegram/bot"
  log "github.com/sirupsen/logrus"
  "github.com/subsplit/subsplit/internal/api"
  "github.com/subsplit/subsplit/internal/app/bot"
  "github.com/subsplit/subsplit/internal/config"
  "github.com/subsplit/subsplit/internal/deps/imghost"
  "github.com/subsplit/subsplit/internal/deps/sheets"
  "github.com/subsplit/subsplit/internal/deps/telegram"
  "github.com/subsplit/subsplit/internal/models"
  "github.com/subsplit/subsplit/internal/sessions"
  "github.com/subsplit/subsplit/pkg/logger"
)

func main() {
  logger.Init()

  cfg := config.MustLoad()

  ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer cancel()

  telegramClient, err := telegram.NewBotClient(telegram.Config{
    Token: cfg.TelegramToken,
  })
  if err != nil {
    log.Fatalf("telegram.NewBotClient: %v", err)
  }

  imghostClient := imghost.NewClient(
    imghost.Config{
      Cloud:     cfg.ImghostCloud,
      APIKey:    cfg.ImghostAPIKey,
      APISecret: cfg.ImghostAPISecret,
    },
    imghost.Dependencies{
      Client: resty.New(),
    })

  sheetsClient := sheets.NewClient(
    sheets.Config{
      WebhookURL: cfg.SheetWebhookURL,
    },
    sheets.Dependencies{
      Client: resty.New(),
    })

  store := sessions.NewStore()
  store.StartSweeper(ctx, cfg.SweepInterval, cfg.SessionTTL)

  transport := bot.NewTransport(
    bot.Config{
      AdminChatId:    cfg.AdminChatId,
      UpiID:          cfg.UpiID,
      SupportContact: cfg.SupportContact,
      CancelEnabled:  cfg.CancelEnabled,
    },
    bot.Dependencies{
      Bot:      telegramClient,
      Sessions: store,
      Imghost:  imghostClient,
      Sheets:   sheetsClient,
      Catalog:  models.DefaultCatalog(),
    })

  var webhook http.Handler

  switch cfg.DeliveryMode {
  case config.DeliveryWebhook:
    url := fmt.Sprintf("%s/webhook/%s", cfg.PublicBaseURL, cfg.WebhookSecret)

    _, err = telegramClient.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: url})
    if err != nil {
      log.Fatalf("telegramClient.SetWebhook: %v", err)
    }

    transport.StartWebhook(ctx)
    webhook = transport.WebhookHandler()

  default:
    transport.Start(ctx)
  }

  server := api.NewServer(
    api.Config{
      Address:       cfg.HTTPAddress,
      WebhookSecret: cfg.WebhookSecret,
    },
    api.Dependencies{
      Webhook: webhook,
    })

  go func() {
    if err := server.Start(); err != nil {
      log.Fatalf("server.Start: %v", err)
    }
  }()

  <-ctx.Done()

  shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
  defer shutdownCancel()

  if err := server.Shutdown(shutdownCtx); err != nil {
    log.Errorf("server.Shutdown: %v", err)
  }

  log.Info("bot stopped")
}
