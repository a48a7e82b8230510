package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// LoginStore holds the tokens issued by successful logins. Tokens expire
// after ttl and do not survive a restart.
type LoginStore struct {
	tokens *cache.Cache
	ttl    time.Duration
}

func NewLoginStore(ttl time.Duration) *LoginStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &LoginStore{
		tokens: cache.New(ttl, time.Hour),
		ttl:    ttl,
	}
}

// Issue registers a new random token.
func (s *LoginStore) Issue() string {
	token := uuid.NewString()
	s.tokens.Set(token, struct{}{}, s.ttl)
	return token
}

func (s *LoginStore) Valid(token string) bool {
	if token == "" {
		return false
	}
	_, ok := s.tokens.Get(token)
	return ok
}

func (s *LoginStore) Revoke(token string) {
	s.tokens.Delete(token)
}

// TTL is the lifetime of an issued token.
func (s *LoginStore) TTL() time.Duration {
	return s.ttl
}
