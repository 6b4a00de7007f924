package sessions

import (
  "context"
  "time"

  log "github.com/sirupsen/logrus"
)

const (
  DefaultSweepInterval = time.Hour
  DefaultSessionTTL    = time.Hour
)

// StartSweeper runs the expiry sweep on a fixed interval until the
// context is cancelled. A sweep never fails: it only deletes map entries.
func (s *Store) StartSweeper(ctx context.Context, interval, window time.Duration) {
  if interval <= 0 {
    interval = DefaultSweepInterval
  }
  if window <= 0 {
    window = DefaultSessionTTL
  }

  go func() {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()

    for {
      select {
      case <-ctx.Done():
        log.Warn("sessions.sweeper: context cancelled: sweeper stopped")
        return

      case now := <-ticker.C:
        removed := s.SweepExpired(now, window)

        if removed > 0 {
          log.
            WithField("removed", removed).
            WithField("window", window).
            Info("sessions.sweeper: expired sessions removed")
        }
      }
    }
  }()
}
