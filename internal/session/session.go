// Package session tracks the multi-step post creation dialogue per chat.
package session

import (
	"sync"
	"time"

	"github.com/maheshrc27/chanpost/internal/models"
)

type Step int

const (
	AwaitingTime Step = iota + 1
	AwaitingMedia
	AwaitingText
)

func (s Step) String() string {
	switch s {
	case AwaitingTime:
		return "awaiting_time"
	case AwaitingMedia:
		return "awaiting_media"
	case AwaitingText:
		return "awaiting_text"
	default:
		return "unknown"
	}
}

// Session is the in-progress state of one post. PendingTime is set once the
// dialogue reaches AwaitingText.
type Session struct {
	Step         Step
	PendingTime  time.Time
	PendingMedia *models.Media
}

// Store holds sessions for the lifetime of the process. It is safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]Session)}
}

func (s *Store) Get(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	return sess, ok
}

func (s *Store) Put(chatID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[chatID] = sess
}

func (s *Store) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}
