package api

import (
  "net/http"
  "net/http/httptest"
  "testing"

  "github.com/stretchr/testify/assert"
)

func TestHealthEndpoint(t *testing.T) {
  server := NewServer(Config{Address: ":0"}, Dependencies{})

  rec := httptest.NewRecorder()
  server.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

  assert.Equal(t, http.StatusOK, rec.Code)
  assert.Contains(t, rec.Body.String(), "up")
}

func TestWebhookSecretGate(t *testing.T) {
  received := false

  webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
    received = true
    w.WriteHeader(http.StatusOK)
  })

  server := NewServer(
    Config{Address: ":0", WebhookSecret: "s3cret"},
    Dependencies{Webhook: webhook})

  rec := httptest.NewRecorder()
  server.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/wrong", nil))

  assert.Equal(t, http.StatusNotFound, rec.Code)
  assert.False(t, received)

  rec = httptest.NewRecorder()
  server.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/s3cret", nil))

  assert.Equal(t, http.StatusOK, rec.Code)
  assert.True(t, received)
}

func TestWebhookRouteDisabledWithoutSecret(t *testing.T) {
  server := NewServer(Config{Address: ":0"}, Dependencies{
    Webhook: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
      w.WriteHeader(http.StatusOK)
    }),
  })

  rec := httptest.NewRecorder()
  server.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/anything", nil))

  assert.Equal(t, http.StatusNotFound, rec.Code)
}
