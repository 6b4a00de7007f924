package imghost

import (
  "bytes"
  "context"
  "fmt"
  "time"

  "github.com/go-resty/resty/v2"
  "github.com/spf13/cast"
  "github.com/subsplit/subsplit/pkg/hasher"
)

const uploadURLTemplate = "https://api.cloudinary.com/v1_1/%s/image/upload"

type Config struct {
  Cloud     string
  APIKey    string
  APISecret string

  // BaseURL overrides the image host endpoint. Empty means the public
  // Cloudinary API.
  BaseURL string
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

type UploadParams struct {
  // SourceURL points at the chat platform's file download link.
  SourceURL string
  Filename  string
  Folder    string
}

type UploadResult struct {
  SecureURL string
}

type uploadResponse struct {
  SecureURL string `json:"secure_url"`
  URL       string `json:"url"`
}

func (c *Client) uploadURL() string {
  if c.config.BaseURL != "" {
    return fmt.Sprintf("%s/%s/image/upload", c.config.BaseURL, c.config.Cloud)
  }
  return fmt.Sprintf(uploadURLTemplate, c.config.Cloud)
}

// Upload fetches the screenshot bytes from the chat platform and streams
// them to the image host under the given folder namespace.
func (c *Client) Upload(ctx context.Context, params UploadParams) (UploadResult, error) {
  fetched, err := c.deps.Client.R().
    SetContext(ctx).
    Get(params.SourceURL)
  if err != nil {
    return UploadResult{}, fmt.Errorf("fetch source image: %w", err)
  }
  if fetched.IsError() {
    return UploadResult{}, fmt.Errorf("fetch source image: status: %d", fetched.StatusCode())
  }

  timestamp := cast.ToString(time.Now().Unix())

  signature := hasher.SHA256(fmt.Sprintf("folder=%s&timestamp=%s%s",
    params.Folder, timestamp, c.config.APISecret))

  out := uploadResponse{}

  uploaded, err := c.deps.Client.R().
    SetContext(ctx).
    SetFileReader("file", params.Filename, bytes.NewReader(fetched.Body())).
    SetFormData(map[string]string{
      "api_key":             c.config.APIKey,
      "timestamp":           timestamp,
      "folder":              params.Folder,
      "signature":           signature,
      "signature_algorithm": "sha256",
    }).
    SetResult(&out).
    Post(c.uploadURL())
  if err != nil {
    return UploadResult{}, fmt.Errorf("upload image: %w", err)
  }
  if uploaded.IsError() {
    return UploadResult{}, fmt.Errorf("upload image: status: %d: %s", uploaded.StatusCode(), uploaded.String())
  }

  url := out.SecureURL
  if url == "" {
    url = out.URL
  }
  if url == "" {
    return UploadResult{}, fmt.Errorf("upload image: response without url")
  }

  return UploadResult{SecureURL: url}, nil
}
