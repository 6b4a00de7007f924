package models

import "time"

const (
  StageFresh             Stage = "fresh"
  StagePlanSelected      Stage = "plan_selected"
  StageAwaitingReference Stage = "awaiting_reference"
  StageSubmitted         Stage = "submitted"
)

// ExpiryDateLayout is the dd/mm/yyyy format shown to users
// and written to the spreadsheet record.
const ExpiryDateLayout = "02/01/2006"

type Stage = string

type ChatId = int64

// Session is the per-chat conversation state. It lives only in memory:
// a process restart drops every session.
type Session struct {
  ChatId        ChatId    `json:"chat_id"`
  Stage         Stage     `json:"stage"`
  LastActivity  time.Time `json:"last_activity"`
  Plan          *Plan     `json:"plan"`
  ScreenshotURL string    `json:"screenshot_url"`
  PaymentRef    string    `json:"payment_ref"`
  ExpiryDate    string    `json:"expiry_date"`
}

func (s Session) IsSubmitted() bool {
  return s.Stage == StageSubmitted && s.ExpiryDate != ""
}
