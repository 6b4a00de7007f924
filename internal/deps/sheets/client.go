package sheets

import (
  "context"
  "fmt"
  "time"

  "github.com/go-resty/resty/v2"
  "github.com/subsplit/subsplit/internal/models"
)

type Config struct {
  WebhookURL string
}

type Dependencies struct {
  Client *resty.Client
}

type Client struct {
  config Config
  deps   Dependencies
}

// NewClient configures the passed resty client with the gateway's
// timeout and transient-failure retry policy.
func NewClient(config Config, deps Dependencies) *Client {
  deps.Client.
    SetTimeout(30 * time.Second).
    SetRetryCount(3).
    SetRetryWaitTime(500 * time.Millisecond).
    SetRetryMaxWaitTime(5 * time.Second).
    AddRetryCondition(func(r *resty.Response, err error) bool {
      return err != nil || r.StatusCode() >= 500
    })

  return &Client{config: config, deps: deps}
}

// Record posts one completed submission to the spreadsheet webhook.
func (c *Client) Record(ctx context.Context, submission models.Submission) error {
  resp, err := c.deps.Client.R().
    SetContext(ctx).
    SetHeader("Content-Type", "application/json").
    SetBody(submission).
    Post(c.config.WebhookURL)
  if err != nil {
    return fmt.Errorf("sheet webhook: %w", err)
  }
  if resp.IsError() {
    return fmt.Errorf("sheet webhook: status: %d: %s", resp.StatusCode(), resp.String())
  }

  return nil
}
