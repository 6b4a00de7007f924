package sessions

import (
  "sort"
  "sync"
  "time"

  "github.com/subsplit/subsplit/internal/models"
)

// Store keeps every chat's conversation state in memory. Entries are
// created on first touch, mutated under the store lock, and removed by
// an explicit delete or the expiry sweep. Nothing survives a restart.
type Store struct {
  mu       sync.Mutex
  sessions map[models.ChatId]*models.Session
  chatMu   map[models.ChatId]*sync.Mutex
}

func NewStore() *Store {
  return &Store{
    sessions: make(map[models.ChatId]*models.Session),
    chatMu:   make(map[models.ChatId]*sync.Mutex),
  }
}

// LockChat serializes update handling for one chat. Handlers hold the
// chat lock for the whole update so two photo uploads from the same chat
// cannot interleave their session writes.
func (s *Store) LockChat(chatId models.ChatId) {
  s.chatMutex(chatId).Lock()
}

func (s *Store) UnlockChat(chatId models.ChatId) {
  s.chatMutex(chatId).Unlock()
}

func (s *Store) chatMutex(chatId models.ChatId) *sync.Mutex {
  s.mu.Lock()
  defer s.mu.Unlock()

  mu, ok := s.chatMu[chatId]
  if !ok {
    mu = new(sync.Mutex)
    s.chatMu[chatId] = mu
  }

  return mu
}

func (s *Store) Get(chatId models.ChatId) (models.Session, bool) {
  s.mu.Lock()
  defer s.mu.Unlock()

  session, ok := s.sessions[chatId]
  if !ok {
    return models.Session{}, false
  }

  return *session, true
}

// Upsert creates a fresh session if the chat has none, stamps
// LastActivity, then applies the mutator. The mutated copy is returned.
func (s *Store) Upsert(chatId models.ChatId, mutate func(*models.Session)) models.Session {
  s.mu.Lock()
  defer s.mu.Unlock()

  session, ok := s.sessions[chatId]
  if !ok {
    session = &models.Session{
      ChatId: chatId,
      Stage:  models.StageFresh,
    }
    s.sessions[chatId] = session
  }

  session.LastActivity = time.Now()

  if mutate != nil {
    mutate(session)
  }

  return *session
}

func (s *Store) Delete(chatId models.ChatId) bool {
  s.mu.Lock()
  defer s.mu.Unlock()

  _, ok := s.sessions[chatId]

  delete(s.sessions, chatId)

  return ok
}

// SweepExpired drops every session inactive longer than window,
// whatever stage it reached. Returns the number of removed entries.
func (s *Store) SweepExpired(now time.Time, window time.Duration) int {
  s.mu.Lock()
  defer s.mu.Unlock()

  removed := 0

  for chatId, session := range s.sessions {
    if now.Sub(session.LastActivity) > window {
      delete(s.sessions, chatId)
      removed++
    }
  }

  return removed
}

// ListSubmitted returns completed sessions ordered by chat id.
func (s *Store) ListSubmitted() []models.Session {
  s.mu.Lock()
  defer s.mu.Unlock()

  list := make([]models.Session, 0, len(s.sessions))

  for _, session := range s.sessions {
    if session.IsSubmitted() {
      list = append(list, *session)
    }
  }

  sort.Slice(list, func(i, j int) bool {
    return list[i].ChatId < list[j].ChatId
  })

  return list
}

func (s *Store) Len() int {
  s.mu.Lock()
  defer s.mu.Unlock()

  return len(s.sessions)
}
