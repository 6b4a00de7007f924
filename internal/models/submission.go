package models

// Submission is the record posted to the spreadsheet webhook once a chat
// completes the payment flow. Field names follow the sheet's column contract.
type Submission struct {
  Name         string `json:"name"`
  Username     string `json:"username"`
  ChatId       ChatId `json:"chatId"`
  Subscription string `json:"subscription"`
  UpiInfo      string `json:"upiInfo"`
  Screenshot   string `json:"screenshot"`
  ExpiryDate   string `json:"expiryDate"`
}
