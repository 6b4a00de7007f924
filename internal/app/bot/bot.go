package bot

import (
  "context"
  "net/http"
  "strings"

  telegram "github.com/go-telegram/bot"
  tgmodels "github.com/go-telegram/bot/models"
  tgreply "github.com/go-telegram/ui/keyboard/reply"
  "github.com/subsplit/subsplit/internal/deps/imghost"
  "github.com/subsplit/subsplit/internal/models"
  "github.com/subsplit/subsplit/internal/sessions"
)

// screenshotFolder is the image-host namespace payment proofs land in.
const screenshotFolder = "payment_screenshots"

// TelegramClient is the slice of the chat platform API the flow consumes.
// *telegram.Bot satisfies it; tests substitute fakes.
type TelegramClient interface {
  SendMessage(ctx context.Context, params *telegram.SendMessageParams) (*tgmodels.Message, error)
  SendPhoto(ctx context.Context, params *telegram.SendPhotoParams) (*tgmodels.Message, error)
  GetFile(ctx context.Context, params *telegram.GetFileParams) (*tgmodels.File, error)
  FileDownloadLink(f *tgmodels.File) string
}

type ImageUploader interface {
  Upload(ctx context.Context, params imghost.UploadParams) (imghost.UploadResult, error)
}

type SubmissionRecorder interface {
  Record(ctx context.Context, submission models.Submission) error
}

type Config struct {
  AdminChatId    int64
  UpiID          string
  SupportContact string
  CancelEnabled  bool
}

type Dependencies struct {
  // Bot is the concrete client, needed for handler registration and
  // update delivery. Telegram narrows it for outbound calls so the
  // flow can be exercised without the network.
  Bot      *telegram.Bot
  Telegram TelegramClient
  Sessions *sessions.Store
  Imghost  ImageUploader
  Sheets   SubmissionRecorder
  Catalog  *models.Catalog
}

type Transport struct {
  config       Config
  deps         Dependencies
  commands     []string
  planKeyboard tgmodels.ReplyMarkup
}

func NewTransport(config Config, deps Dependencies) *Transport {
  if deps.Telegram == nil {
    deps.Telegram = deps.Bot
  }
  return &Transport{config: config, deps: deps}
}

// Start registers handlers and begins long-polling the platform.
func (b *Transport) Start(ctx context.Context) {
  b.registerHandlers(ctx)

  go b.deps.Bot.Start(ctx)
}

// StartWebhook registers handlers and begins consuming updates pushed
// into the bot's webhook handler by the HTTP server.
func (b *Transport) StartWebhook(ctx context.Context) {
  b.registerHandlers(ctx)

  go b.deps.Bot.StartWebhook(ctx)
}

// WebhookHandler exposes the update receiver for webhook deployments.
func (b *Transport) WebhookHandler() http.HandlerFunc {
  return b.deps.Bot.WebhookHandler()
}

func (b *Transport) registerHandlers(_ context.Context) {
  b.registerCommand("/start", b.handleStart)
  b.registerCommand("/help", b.handleHelp)
  b.registerCommand("/plans", b.handlePlans)
  b.registerCommand("/status", b.handleStatus)
  b.registerCommand("/contact", b.handleContact)
  b.registerCommand("/list_users", b.handleListUsers)

  if b.config.CancelEnabled {
    b.registerCommand("/cancel", b.handleCancel)
  }

  b.planKeyboard = b.newPlanKeyboard(b.deps.Bot)

  // Free text and attachments. Commands and plan labels are excluded:
  // their exact-match handlers above take priority, which is what the
  // dispatch ordering requires (a plan label and a payment reference
  // both arrive as plain text).
  b.deps.Bot.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
    if update == nil || update.Message == nil {
      return false
    }
    text := update.Message.Text

    if strings.HasPrefix(text, "/") {
      return false
    }
    if _, ok := b.deps.Catalog.Find(text); ok {
      return false
    }
    return true
  }, b.handleFlow)

  b.deps.Bot.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
    if update == nil || update.Message == nil {
      return false
    }
    text := update.Message.Text

    return strings.HasPrefix(text, "/") && !b.isKnownCommand(text)
  }, b.handleUnknownCommand)
}

func (b *Transport) registerCommand(command string, handler telegram.HandlerFunc) {
  b.commands = append(b.commands, command)

  b.deps.Bot.RegisterHandler(
    telegram.HandlerTypeMessageText, command,
    telegram.MatchTypeExact, handler,
  )
}

func (b *Transport) isKnownCommand(text string) bool {
  for _, command := range b.commands {
    if text == command {
      return true
    }
  }
  return false
}

// newPlanKeyboard builds the /start keyboard: one row per catalog plan,
// each button routed to plan selection.
func (b *Transport) newPlanKeyboard(bot *telegram.Bot) tgmodels.ReplyMarkup {
  reply := tgreply.New(
    tgreply.WithPrefix("plans"),
    tgreply.IsOneTimeKeyboard(),
    tgreply.ResizableKeyboard(),
  )

  for _, label := range b.deps.Catalog.Labels() {
    reply = reply.Row().Button(label, bot, telegram.MatchTypeExact, b.handlePlanSelect)
  }

  return reply
}
