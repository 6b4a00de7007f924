package bot

import (
  "context"
  "fmt"
  "strings"

  telegram "github.com/go-telegram/bot"
  tgmodels "github.com/go-telegram/bot/models"
  "github.com/samber/lo"
  log "github.com/sirupsen/logrus"
  "github.com/subsplit/subsplit/internal/models"
  "github.com/subsplit/subsplit/pkg/money"
  "github.com/subsplit/subsplit/pkg/stringer"
  "golang.org/x/text/language"
)

type sendMessageParams struct {
  ChatId int64
  Text   string
  Reply  tgmodels.ReplyMarkup
}

func (b *Transport) sendMessage(ctx context.Context, params sendMessageParams) error {
  _, err := b.deps.Telegram.SendMessage(ctx, &telegram.SendMessageParams{
    ChatID:      params.ChatId,
    Text:        params.Text,
    ParseMode:   tgmodels.ParseModeHTML,
    ReplyMarkup: params.Reply,
    LinkPreviewOptions: &tgmodels.LinkPreviewOptions{
      IsDisabled: lo.ToPtr(true),
    },
  })
  if err != nil {
    return fmt.Errorf("b.deps.Telegram.SendMessage: %w", err)
  }

  return nil
}

type sendErrorMessageParams struct {
  ChatId int64
  Text   string
  Stage  models.Stage
}

func (b *Transport) sendErrorMessage(ctx context.Context, params sendErrorMessageParams) {
  err := b.sendMessage(ctx, sendMessageParams{
    ChatId: params.ChatId,
    Text:   params.Text,
  })
  if err != nil {
    log.
      WithField("chat_id", params.ChatId).
      WithField("stage", params.Stage).
      Errorf("b.sendMessage: %v", err)

    return
  }
}

// touchSession stamps LastActivity, creating the session on a chat's
// first inbound message of any kind.
func (b *Transport) touchSession(chatId models.ChatId) models.Session {
  return b.deps.Sessions.Upsert(chatId, nil)
}

type notifyAdminParams struct {
  Name          string
  Username      string
  PlanLabel     string
  Price         int64
  PaymentRef    string
  ExpiryDate    string
  ScreenshotURL string
}

// notifyAdmin sends the screenshot to the admin chat with a caption
// built from user-controlled fields. Every field is escaped for the
// markup dialect before interpolation: an unescaped value would break
// rendering or inject formatting.
func (b *Transport) notifyAdmin(ctx context.Context, params notifyAdminParams) error {
  _, err := b.deps.Telegram.SendPhoto(ctx, &telegram.SendPhotoParams{
    ChatID:    b.config.AdminChatId,
    Photo:     &tgmodels.InputFileString{Data: params.ScreenshotURL},
    Caption:   buildAdminCaption(params),
    ParseMode: tgmodels.ParseModeMarkdown,
  })
  if err != nil {
    return fmt.Errorf("b.deps.Telegram.SendPhoto: %w", err)
  }

  return nil
}

func buildAdminCaption(params notifyAdminParams) string {
  username := params.Username
  if username == "" {
    username = "n/a"
  } else {
    username = "@" + username
  }

  return fmt.Sprintf(`*New payment submission 📋*

*Name:* %s
*Username:* %s
*Plan:* %s
*Price:* %s
*Reference:* %s
*Expires:* %s`,
    telegram.EscapeMarkdown(params.Name),
    telegram.EscapeMarkdown(username),
    telegram.EscapeMarkdown(params.PlanLabel),
    telegram.EscapeMarkdown(money.String(params.Price)),
    telegram.EscapeMarkdown(params.PaymentRef),
    telegram.EscapeMarkdown(params.ExpiryDate),
  )
}

// requesterName builds a display name from the platform user profile.
func requesterName(from *tgmodels.User) string {
  if from == nil {
    return ""
  }

  name := strings.TrimSpace(from.FirstName + " " + from.LastName)
  name = stringer.StripTags(name)
  name = stringer.SanitizeString(name)

  return stringer.ToTitle(name, language.Und)
}

func findChatIdInUpdate(update *tgmodels.Update) (int64, bool) {
  if update != nil && update.Message != nil && update.Message.Chat.ID != 0 {
    return update.Message.Chat.ID, true
  }
  return 0, false
}

func hasAttachment(message *tgmodels.Message) bool {
  return message.Document != nil || len(message.Photo) > 0
}
