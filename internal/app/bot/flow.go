package bot

import (
  "context"
  "fmt"
  "time"

  telegram "github.com/go-telegram/bot"
  tgmodels "github.com/go-telegram/bot/models"
  log "github.com/sirupsen/logrus"
  "github.com/subsplit/subsplit/internal/deps/imghost"
  "github.com/subsplit/subsplit/internal/models"
  "github.com/subsplit/subsplit/pkg/extension"
  "github.com/subsplit/subsplit/pkg/money"
  "github.com/subsplit/subsplit/pkg/stringer"
)

// handleFlow routes every non-command message through the payment
// conversation: attachments go to screenshot handling, free text is
// interpreted by the session stage.
func (b *Transport) handleFlow(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      Warn("chat_id not found")

    return
  }

  b.deps.Sessions.LockChat(chatId)
  defer b.deps.Sessions.UnlockChat(chatId)

  session := b.touchSession(chatId)

  if hasAttachment(update.Message) {
    b.handleScreenshot(ctx, session, update.Message)
    return
  }

  switch session.Stage {
  case models.StageAwaitingReference:
    b.handleReference(ctx, session, update.Message)

  case models.StagePlanSelected:
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Waiting for your payment screenshot 📸 Attach it as a photo or file`,
      Stage:  session.Stage,
    })

  case models.StageSubmitted:
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Your payment is already recorded ✅ Use /status to review it`,
      Stage:  session.Stage,
    })

  default:
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Let's begin with a plan 😉 Use /start to see the options`,
      Stage:  session.Stage,
    })
  }
}

// handlePlanSelect is bound to every catalog keyboard button. Picking a
// plan, including re-picking after one was already chosen, restarts the
// payment conversation for that plan.
func (b *Transport) handlePlanSelect(ctx context.Context, _ *telegram.Bot, update *tgmodels.Update) {
  chatId, ok := findChatIdInUpdate(update)
  if !ok {
    log.
      WithField("update.message", update.Message).
      Warn("chat_id not found")

    return
  }

  b.deps.Sessions.LockChat(chatId)
  defer b.deps.Sessions.UnlockChat(chatId)

  plan, ok := b.deps.Catalog.Find(update.Message.Text)
  if !ok {
    log.
      WithField("chat_id", chatId).
      WithField("label", update.Message.Text).
      Error("selected plan not found in catalog")

    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `That plan is not available anymore 😔 Use /plans to see the current list`,
    })
    return
  }

  b.deps.Sessions.Upsert(chatId, func(s *models.Session) {
    selected := plan
    s.Plan = &selected
    s.Stage = models.StagePlanSelected
    s.ScreenshotURL = ""
    s.PaymentRef = ""
    s.ExpiryDate = ""
  })

  text := fmt.Sprintf(`<b>%s</b> — %s for %d days 📦

Pay <b>%s</b> via UPI to <code>%s</code> 💳

Then send the payment screenshot here as a photo or file 📸`,
    plan.Label, money.String(plan.Price), plan.DurationDays,
    money.String(plan.Price), b.config.UpiID)

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("plan", plan.Label).
      Errorf("b.sendMessage: %v", err)

    return
  }
}

// handleScreenshot validates and uploads a payment proof attachment.
// The session advances only after the image host accepts the upload, so
// a failed or rejected attachment can simply be re-sent.
func (b *Transport) handleScreenshot(ctx context.Context, session models.Session, message *tgmodels.Message) {
  chatId := session.ChatId

  switch session.Stage {
  case models.StageFresh:
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Pick a plan first 😉 Use /start to see the options`,
      Stage:  session.Stage,
    })
    return

  case models.StageSubmitted:
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Your payment is already recorded ✅ Use /status to review it`,
      Stage:  session.Stage,
    })
    return
  }

  fileId, filename, ok := b.resolveAttachment(ctx, chatId, message)
  if !ok {
    return
  }

  file, err := b.deps.Telegram.GetFile(ctx, &telegram.GetFileParams{FileID: fileId})
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("file_id", fileId).
      Errorf("b.deps.Telegram.GetFile: %v", err)

    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Could not read your screenshot 😔 Please send it again`,
      Stage:  session.Stage,
    })
    return
  }

  if filename == "" {
    filename = file.FilePath
  }
  if !extension.IsScreenshot(filename) {
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `That doesn't look like a screenshot 🤔 Send a jpg, jpeg or png image`,
      Stage:  session.Stage,
    })
    return
  }

  uploaded, err := b.deps.Imghost.Upload(ctx, imghost.UploadParams{
    SourceURL: b.deps.Telegram.FileDownloadLink(file),
    Filename:  filename,
    Folder:    screenshotFolder,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("filename", filename).
      Errorf("b.deps.Imghost.Upload: %v", err)

    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Could not save your screenshot 😔 Please send it again in a moment`,
      Stage:  session.Stage,
    })
    return
  }

  b.deps.Sessions.Upsert(chatId, func(s *models.Session) {
    s.ScreenshotURL = uploaded.SecureURL
    s.Stage = models.StageAwaitingReference
  })

  err = b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   `Screenshot received ✅ Now send your UPI transaction reference (UTR) 💳`,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      Errorf("b.sendMessage: %v", err)

    return
  }
}

// resolveAttachment picks the file to upload out of the message. A
// document's filename is checked before any network call, so obviously
// wrong files never leave the chat platform.
func (b *Transport) resolveAttachment(ctx context.Context, chatId int64, message *tgmodels.Message) (fileId, filename string, ok bool) {
  if message.Document != nil {
    if !extension.IsScreenshot(message.Document.FileName) {
      b.sendErrorMessage(ctx, sendErrorMessageParams{
        ChatId: chatId,
        Text:   `That doesn't look like a screenshot 🤔 Send a jpg, jpeg or png image`,
      })
      return "", "", false
    }
    return message.Document.FileID, message.Document.FileName, true
  }

  if len(message.Photo) > 0 {
    // Photo sizes arrive smallest first. Take the original.
    photo := message.Photo[len(message.Photo)-1]
    return photo.FileID, "", true
  }

  return "", "", false
}

// handleReference completes the purchase: it stamps the reference and
// expiry on the session, records the submission on the spreadsheet and
// notifies the admin with the screenshot.
func (b *Transport) handleReference(ctx context.Context, session models.Session, message *tgmodels.Message) {
  chatId := session.ChatId

  reference := stringer.SanitizeString(stringer.StripTags(message.Text))
  if stringer.IsEmptyStr(reference) {
    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Please send the UPI transaction reference (UTR) as plain text 💳`,
      Stage:  session.Stage,
    })
    return
  }

  if session.Plan == nil {
    log.
      WithField("chat_id", chatId).
      WithField("stage", session.Stage).
      Error("session awaiting reference without a plan")

    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   `Something went wrong with your order 😔 Please restart with /start`,
      Stage:  session.Stage,
    })
    return
  }

  expiryDate := time.Now().AddDate(0, 0, session.Plan.DurationDays).Format(models.ExpiryDateLayout)

  session = b.deps.Sessions.Upsert(chatId, func(s *models.Session) {
    s.PaymentRef = reference
    s.ExpiryDate = expiryDate
    s.Stage = models.StageSubmitted
  })

  submission := models.Submission{
    Name:         requesterName(message.From),
    Username:     usernameOf(message.From),
    ChatId:       chatId,
    Subscription: session.Plan.Label,
    UpiInfo:      reference,
    Screenshot:   session.ScreenshotURL,
    ExpiryDate:   expiryDate,
  }

  if err := b.deps.Sheets.Record(ctx, submission); err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("plan", session.Plan.Label).
      Errorf("b.deps.Sheets.Record: %v", err)

    b.sendErrorMessage(ctx, sendErrorMessageParams{
      ChatId: chatId,
      Text:   fmt.Sprintf(`Could not record your payment right now 😔 Please contact %s`, b.config.SupportContact),
      Stage:  session.Stage,
    })
    return
  }

  text := fmt.Sprintf(`<b>Payment submitted 🎉</b>

Plan: %s
Valid until: %s

Your access details arrive here shortly. Thanks for the purchase 😉`,
    session.Plan.Label, expiryDate)

  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: chatId,
    Text:   text,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      Errorf("b.sendMessage: %v", err)
  }

  err = b.notifyAdmin(ctx, notifyAdminParams{
    Name:          submission.Name,
    Username:      submission.Username,
    PlanLabel:     session.Plan.Label,
    Price:         session.Plan.Price,
    PaymentRef:    reference,
    ExpiryDate:    expiryDate,
    ScreenshotURL: session.ScreenshotURL,
  })
  if err != nil {
    log.
      WithField("chat_id", chatId).
      WithField("admin_chat_id", b.config.AdminChatId).
      Errorf("b.notifyAdmin: %v", err)

    return
  }
}

func usernameOf(from *tgmodels.User) string {
  if from == nil {
    return ""
  }
  return from.Username
}
