package bot

import (
  "context"
  "fmt"
  "strings"
  "testing"
  "time"

  telegram "github.com/go-telegram/bot"
  tgmodels "github.com/go-telegram/bot/models"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "github.com/subsplit/subsplit/internal/deps/imghost"
  "github.com/subsplit/subsplit/internal/models"
  "github.com/subsplit/subsplit/internal/sessions"
)

type telegramMock struct {
  messages []*telegram.SendMessageParams
  photos   []*telegram.SendPhotoParams

  getFileFunc func(params *telegram.GetFileParams) (*tgmodels.File, error)
}

func (m *telegramMock) SendMessage(_ context.Context, params *telegram.SendMessageParams) (*tgmodels.Message, error) {
  m.messages = append(m.messages, params)
  return &tgmodels.Message{}, nil
}

func (m *telegramMock) SendPhoto(_ context.Context, params *telegram.SendPhotoParams) (*tgmodels.Message, error) {
  m.photos = append(m.photos, params)
  return &tgmodels.Message{}, nil
}

func (m *telegramMock) GetFile(_ context.Context, params *telegram.GetFileParams) (*tgmodels.File, error) {
  if m.getFileFunc != nil {
    return m.getFileFunc(params)
  }
  return &tgmodels.File{FileID: params.FileID, FilePath: "photos/file_1.jpg"}, nil
}

func (m *telegramMock) FileDownloadLink(f *tgmodels.File) string {
  return "https://files.test/" + f.FilePath
}

func (m *telegramMock) lastMessageText(t *testing.T) string {
  t.Helper()
  require.NotEmpty(t, m.messages)
  return m.messages[len(m.messages)-1].Text
}

type uploaderMock struct {
  uploads    []imghost.UploadParams
  uploadFunc func(params imghost.UploadParams) (imghost.UploadResult, error)
}

func (m *uploaderMock) Upload(_ context.Context, params imghost.UploadParams) (imghost.UploadResult, error) {
  m.uploads = append(m.uploads, params)

  if m.uploadFunc != nil {
    return m.uploadFunc(params)
  }
  return imghost.UploadResult{SecureURL: "https://img.test/" + params.Filename}, nil
}

type recorderMock struct {
  records    []models.Submission
  recordFunc func(submission models.Submission) error
}

func (m *recorderMock) Record(_ context.Context, submission models.Submission) error {
  m.records = append(m.records, submission)

  if m.recordFunc != nil {
    return m.recordFunc(submission)
  }
  return nil
}

type testEnv struct {
  transport *Transport
  telegram  *telegramMock
  uploader  *uploaderMock
  recorder  *recorderMock
  store     *sessions.Store
}

func newTestEnv(t *testing.T) *testEnv {
  t.Helper()

  env := &testEnv{
    telegram: &telegramMock{},
    uploader: &uploaderMock{},
    recorder: &recorderMock{},
    store:    sessions.NewStore(),
  }

  env.transport = NewTransport(
    Config{
      AdminChatId:    999,
      UpiID:          "subsplit@upi",
      SupportContact: "@subsplit_support",
      CancelEnabled:  true,
    },
    Dependencies{
      Telegram: env.telegram,
      Sessions: env.store,
      Imghost:  env.uploader,
      Sheets:   env.recorder,
      Catalog:  models.DefaultCatalog(),
    })

  return env
}

func textUpdate(chatId int64, text string) *tgmodels.Update {
  return &tgmodels.Update{
    Message: &tgmodels.Message{
      Chat: tgmodels.Chat{ID: chatId},
      From: &tgmodels.User{FirstName: "Asha", LastName: "Rao", Username: "asha_rao"},
      Text: text,
    },
  }
}

func photoUpdate(chatId int64) *tgmodels.Update {
  update := textUpdate(chatId, "")
  update.Message.Photo = []tgmodels.PhotoSize{
    {FileID: "small"},
    {FileID: "large"},
  }
  return update
}

func documentUpdate(chatId int64, filename string) *tgmodels.Update {
  update := textUpdate(chatId, "")
  update.Message.Document = &tgmodels.Document{FileID: "doc-1", FileName: filename}
  return update
}

func TestFullPaymentFlow(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handleStart(ctx, nil, textUpdate(100, "/start"))

  session, ok := env.store.Get(100)
  require.True(t, ok)
  assert.Equal(t, models.StageFresh, session.Stage)

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎧 Spotify"))

  session, _ = env.store.Get(100)
  assert.Equal(t, models.StagePlanSelected, session.Stage)
  require.NotNil(t, session.Plan)
  assert.Equal(t, int64(50), session.Plan.Price)
  assert.Contains(t, env.telegram.lastMessageText(t), "subsplit@upi")
  assert.Contains(t, env.telegram.lastMessageText(t), "₹50")

  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  session, _ = env.store.Get(100)
  assert.Equal(t, models.StageAwaitingReference, session.Stage)
  assert.NotEmpty(t, session.ScreenshotURL)

  require.Len(t, env.uploader.uploads, 1)
  assert.Equal(t, "https://files.test/photos/file_1.jpg", env.uploader.uploads[0].SourceURL)
  assert.Equal(t, "payment_screenshots", env.uploader.uploads[0].Folder)

  env.transport.handleFlow(ctx, nil, textUpdate(100, "TXN123"))

  session, _ = env.store.Get(100)
  assert.Equal(t, models.StageSubmitted, session.Stage)
  assert.Equal(t, "TXN123", session.PaymentRef)

  wantExpiry := time.Now().AddDate(0, 0, 30).Format(models.ExpiryDateLayout)
  assert.Equal(t, wantExpiry, session.ExpiryDate)

  require.Len(t, env.recorder.records, 1)
  submission := env.recorder.records[0]
  assert.Equal(t, "Asha Rao", submission.Name)
  assert.Equal(t, "asha_rao", submission.Username)
  assert.Equal(t, models.ChatId(100), submission.ChatId)
  assert.Equal(t, "🎧 Spotify", submission.Subscription)
  assert.Equal(t, "TXN123", submission.UpiInfo)
  assert.Equal(t, session.ScreenshotURL, submission.Screenshot)
  assert.Equal(t, wantExpiry, submission.ExpiryDate)

  require.Len(t, env.telegram.photos, 1)
  assert.Equal(t, int64(999), env.telegram.photos[0].ChatID)
  assert.Contains(t, env.telegram.photos[0].Caption, "TXN123")
}

func TestScreenshotBeforePlanIsRejected(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  assert.Empty(t, env.uploader.uploads)
  assert.Contains(t, env.telegram.lastMessageText(t), "/start")

  session, _ := env.store.Get(100)
  assert.Equal(t, models.StageFresh, session.Stage)
}

func TestDocumentWithWrongExtensionSkipsDownload(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))

  env.telegram.getFileFunc = func(_ *telegram.GetFileParams) (*tgmodels.File, error) {
    t.Fatal("GetFile must not be called for a rejected filename")
    return nil, nil
  }

  env.transport.handleFlow(ctx, nil, documentUpdate(100, "statement.pdf"))

  assert.Empty(t, env.uploader.uploads)

  session, _ := env.store.Get(100)
  assert.Equal(t, models.StagePlanSelected, session.Stage)
  assert.Empty(t, session.ScreenshotURL)
}

func TestDocumentScreenshotAccepted(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))
  env.transport.handleFlow(ctx, nil, documentUpdate(100, "payment.PNG"))

  require.Len(t, env.uploader.uploads, 1)
  assert.Equal(t, "payment.PNG", env.uploader.uploads[0].Filename)

  session, _ := env.store.Get(100)
  assert.Equal(t, models.StageAwaitingReference, session.Stage)
}

func TestUploadFailureKeepsStage(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))

  env.uploader.uploadFunc = func(_ imghost.UploadParams) (imghost.UploadResult, error) {
    return imghost.UploadResult{}, fmt.Errorf("image host down")
  }

  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  session, _ := env.store.Get(100)
  assert.Equal(t, models.StagePlanSelected, session.Stage)
  assert.Empty(t, session.ScreenshotURL)
  assert.Contains(t, env.telegram.lastMessageText(t), "again")
}

func TestEmptyReferenceIsReprompted(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))
  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  env.transport.handleFlow(ctx, nil, textUpdate(100, "   "))

  assert.Empty(t, env.recorder.records)

  session, _ := env.store.Get(100)
  assert.Equal(t, models.StageAwaitingReference, session.Stage)
  assert.Empty(t, session.PaymentRef)
}

func TestWebhookFailureSkipsAdminNotify(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))
  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  env.recorder.recordFunc = func(_ models.Submission) error {
    return fmt.Errorf("sheet webhook: status: 502")
  }

  env.transport.handleFlow(ctx, nil, textUpdate(100, "TXN123"))

  assert.Empty(t, env.telegram.photos)
  assert.Contains(t, env.telegram.lastMessageText(t), "@subsplit_support")
}

func TestPlanReselectionClearsProgress(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))
  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  session, _ := env.store.Get(100)
  require.Equal(t, models.StageAwaitingReference, session.Stage)

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎧 Spotify"))

  session, _ = env.store.Get(100)
  assert.Equal(t, models.StagePlanSelected, session.Stage)
  assert.Equal(t, "🎧 Spotify", session.Plan.Label)
  assert.Empty(t, session.ScreenshotURL)
  assert.Empty(t, session.PaymentRef)
}

func TestFreeTextPromptsByStage(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handleFlow(ctx, nil, textUpdate(100, "hello"))
  assert.Contains(t, env.telegram.lastMessageText(t), "/start")

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))
  env.transport.handleFlow(ctx, nil, textUpdate(100, "paid already"))
  assert.Contains(t, env.telegram.lastMessageText(t), "screenshot")
}

func TestDuplicateScreenshotAfterSubmission(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  env.transport.handlePlanSelect(ctx, nil, textUpdate(100, "🎬 Netflix"))
  env.transport.handleFlow(ctx, nil, photoUpdate(100))
  env.transport.handleFlow(ctx, nil, textUpdate(100, "TXN123"))

  require.Len(t, env.uploader.uploads, 1)

  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  assert.Len(t, env.uploader.uploads, 1)
  assert.Contains(t, env.telegram.lastMessageText(t), "/status")
}

func TestAdminCaptionEscapesHostileNames(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  update := textUpdate(100, "🎬 Netflix")
  update.Message.From = &tgmodels.User{FirstName: "*bold*", LastName: "[x](y)", Username: "under_score"}
  env.transport.handlePlanSelect(ctx, nil, update)

  env.transport.handleFlow(ctx, nil, photoUpdate(100))

  ref := textUpdate(100, "TXN_42")
  ref.Message.From = update.Message.From
  env.transport.handleFlow(ctx, nil, ref)

  require.Len(t, env.telegram.photos, 1)
  caption := env.telegram.photos[0].Caption

  assert.Contains(t, caption, `\*Bold\*`)
  assert.Contains(t, caption, `\[X\]\(Y\)`)
  assert.Contains(t, caption, `@under\_score`)
  assert.Contains(t, caption, `TXN\_42`)
  assert.False(t, strings.Contains(caption, "[x](y)"))
}
