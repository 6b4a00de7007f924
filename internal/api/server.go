package api

import (
  "context"
  "fmt"
  "net/http"
  "time"

  "github.com/go-chi/chi/v5"
  "github.com/go-chi/chi/v5/middleware"
  log "github.com/sirupsen/logrus"
)

type Config struct {
  Address string
  // WebhookSecret guards the update receiver path. Empty disables the
  // webhook route and leaves only the health endpoint.
  WebhookSecret string
}

type Dependencies struct {
  // Webhook receives chat platform updates pushed over HTTPS. Nil in
  // long-polling deployments.
  Webhook http.Handler
}

type Server struct {
  config Config
  server *http.Server
}

func NewServer(config Config, deps Dependencies) *Server {
  router := chi.NewRouter()
  router.Use(middleware.Recoverer)

  router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write([]byte("subsplit bot is up 🚀"))
  })

  if config.WebhookSecret != "" && deps.Webhook != nil {
    router.Post("/webhook/{secret}", func(w http.ResponseWriter, r *http.Request) {
      if chi.URLParam(r, "secret") != config.WebhookSecret {
        log.
          WithField("remote_addr", r.RemoteAddr).
          Warn("webhook call with wrong secret")

        w.WriteHeader(http.StatusNotFound)
        return
      }
      deps.Webhook.ServeHTTP(w, r)
    })
  }

  return &Server{
    config: config,
    server: &http.Server{
      Addr:              config.Address,
      Handler:           router,
      ReadHeaderTimeout: 10 * time.Second,
    },
  }
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
  log.Infof("http server listening on %s", s.config.Address)

  if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
    return fmt.Errorf("s.server.ListenAndServe: %w", err)
  }
  return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
  if err := s.server.Shutdown(ctx); err != nil {
    return fmt.Errorf("s.server.Shutdown: %w", err)
  }
  return nil
}
