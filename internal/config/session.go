package config

import (
	"fmt"
	"net/http"
	"strings"
)

// SessionCookies parses the seed cookies of the fetcher section.
// An empty Cookie value yields no cookies.
func (f FetcherConfig) SessionCookies() ([]*http.Cookie, error) {
	line := strings.TrimSpace(f.Cookie)
	if line == "" {
		return nil, nil
	}

	cookies, err := http.ParseCookie(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetcher.cookie: %w", err)
	}
	return cookies, nil
}

// RequestHeaders returns a copy of the extra request headers.
func (f FetcherConfig) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(f.Headers))
	for k, v := range f.Headers {
		headers[k] = v
	}
	return headers
}
