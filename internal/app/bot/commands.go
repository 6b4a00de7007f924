package bot

import (
  "context"
  "fmt"
  "strings"

  telegram "github.com/go-telegram/bot"
  tgmodels "github.com/go-telegram/bot/models"
  "github.com/samber/lo"
  log "github.com/sirupsen/logrus"
  "github.com/spf13/cast"
  "github.com/subsplit/subsplit/internal/models"
  "github.com/subsplit/subsplit/pkg/money"
)

func (b *Transport) handleStart(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/start").
      Warn("chat_id not found")

    return
  }

  b.deps.Sessions.LockChat(chatId)
  defer b.deps.Sessions.UnlockChat(chatId)

  b.deps.Sessions.Upsert(chatId, func(s *models.Session) {
    s.Stage = models.StageFresh
    s.Plan = nil
    s.ScreenshotURL = ""
    s.PaymentRef = ""
    s.ExpiryDate = ""
  })

  text := `<b>Welcome to subsplit 💬</b>

The bot sells seats on shared subscription plans:
1. Pick a plan from the keyboard below 👇
2. Pay the shown amount via UPI and send a screenshot 📸
3. Send your transaction reference (UTR) 💳

Your access details arrive right here once the payment is recorded 😉`

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
    Reply:  b.planKeyboard,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/start").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

func (b *Transport) handleHelp(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/help").
      Warn("chat_id not found")

    return
  }

  b.touchSession(chatId)

  text := `<b>Available commands 💡</b>

/start — pick a plan and begin
/plans — list plans and prices
/status — show your active subscription
/contact — reach support
/cancel — drop the current conversation

After picking a plan: pay, send the screenshot, then send your UPI reference 💳`

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/help").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

func (b *Transport) handlePlans(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/plans").
      Warn("chat_id not found")

    return
  }

  b.touchSession(chatId)

  lines := lo.Map(b.deps.Catalog.Plans(), func(plan models.Plan, _ int) string {
    return fmt.Sprintf("%s — %s / %d days", plan.Label, money.String(plan.Price), plan.DurationDays)
  })

  text := "<b>Available plans 📋</b>\n\n" + strings.Join(lines, "\n") +
    "\n\nSend a plan name or use /start for the keyboard 😉"

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/plans").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

func (b *Transport) handleStatus(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/status").
      Warn("chat_id not found")

    return
  }

  b.touchSession(chatId)

  session, ok := b.deps.Sessions.Get(chatId)

  if !ok || !session.IsSubmitted() || session.Plan == nil {
    err := b.sendMessage(ctx, sendMessageParams{
      ChatId: chatId,
      Text:   `You don't have an active subscription yet 👀 Use /start to pick a plan`,
    })
    if err != nil {
      log.
        WithField("chat_id", chatId).
        WithField("command", "/status").
        Errorf("b.sendMessage: %v", err)
    }
    return
  }

  text := fmt.Sprintf(`<b>Your subscription 📦</b>

Plan: %s
Price: %s
Valid until: %s`,
    session.Plan.Label, money.String(session.Plan.Price), session.ExpiryDate)

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/status").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

func (b *Transport) handleContact(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/contact").
      Warn("chat_id not found")

    return
  }

  b.touchSession(chatId)

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   fmt.Sprintf(`Questions or payment trouble? Reach us at %s 👨‍💻`, b.config.SupportContact),
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/contact").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

func (b *Transport) handleCancel(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/cancel").
      Warn("chat_id not found")

    return
  }

  b.deps.Sessions.LockChat(chatId)
  defer b.deps.Sessions.UnlockChat(chatId)

  text := `Nothing to cancel — you have no conversation in progress 👀`

  if b.deps.Sessions.Delete(chatId) {
    text = `Conversation cancelled 🗑️ Use /start whenever you are ready`
  }

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/cancel").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

// handleListUsers is a diagnostic surface for the admin: one line per
// submitted session. Everyone else gets a rejection.
func (b *Transport) handleListUsers(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      WithField("command", "/list_users").
      Warn("chat_id not found")

    return
  }

  b.touchSession(chatId)

  if chatId != b.config.AdminChatId {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/list_users").
      Warn("unauthorized list_users call")

    err := b.sendMessage(ctx, sendMessageParams{
      ChatId: chatId,
      Text:   `You are not authorized to use this command 🚫`,
    })
    if err != nil {
      log.
        WithField("chat_id", chatId).
        WithField("command", "/list_users").
        Errorf("b.sendMessage: %v", err)
    }
    return
  }

  list := b.deps.Sessions.ListSubmitted()

  text := `No submitted subscriptions yet 👀`

  if len(list) > 0 {
    lines := lo.Map(list, func(session models.Session, _ int) string {
      label := "?"
      if session.Plan != nil {
        label = session.Plan.Label
      }
      return fmt.Sprintf("%s — %s — %s", cast.ToString(session.ChatId), label, session.ExpiryDate)
    })

    text = "<b>Submitted subscriptions 📋</b>\n\n" + strings.Join(lines, "\n")
  }

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("command", "/list_users").
      Errorf("b.sendMessage: %v", err)

    return
  }
}

func (b *Transport) handleUnknownCommand(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    return
  }

  b.touchSession(chatId)

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   `Unknown command 🤔 Use /help to see what the bot understands`,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      Errorf("b.sendMessage: %v", err)

    return
  }
}
