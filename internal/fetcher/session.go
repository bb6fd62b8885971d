package fetcher

import (
	"net/http"
	"slices"
	"sync"
)

// Session is a snapshot of the browser identity used for direct requests.
type Session struct {
	Cookies   []*http.Cookie
	UserAgent string
}

// session holds the mutable identity shared by concurrent fetches.
type session struct {
	mu        sync.RWMutex
	cookies   []*http.Cookie
	userAgent string
}

func newSession(userAgent string, cookies []*http.Cookie) *session {
	return &session{
		cookies:   slices.Clone(cookies),
		userAgent: userAgent,
	}
}

func (s *session) snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		Cookies:   slices.Clone(s.cookies),
		UserAgent: s.userAgent,
	}
}

// adopt replaces the cookies with the solver's set. An empty user agent
// keeps the current one.
func (s *session) adopt(cookies []*http.Cookie, userAgent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = slices.Clone(cookies)
	if userAgent != "" {
		s.userAgent = userAgent
	}
}
