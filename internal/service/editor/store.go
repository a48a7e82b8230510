package editor

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"detectview/internal/service/render"
)

var ErrSessionNotFound = errors.New("editor session not found")

// Store keeps editor sessions in memory. Sessions expire after ttl without access;
// nothing is persisted.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
	measurer render.TextMeasurer
}

func NewStore(ttl time.Duration, measurer render.TextMeasurer) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		sessions: cache.New(ttl, ttl/2),
		ttl:      ttl,
		measurer: measurer,
	}
}

// Create registers a new empty session under a random ID.
func (s *Store) Create() *Session {
	session := NewSession(uuid.NewString(), s.measurer, nil)
	s.sessions.Set(session.ID, session, s.ttl)
	return session
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := v.(*Session)
	s.sessions.Set(id, session, s.ttl)
	return session, nil
}

func (s *Store) Delete(id string) {
	s.sessions.Delete(id)
}

func (s *Store) Count() int {
	return s.sessions.ItemCount()
}
