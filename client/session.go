// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/election-survey/auth"
)

// Session is the client-side voter identity: a token generated on first use
// and kept in a session-scoped file.
type Session struct {
	mu    sync.Mutex
	path  string
	token string
}

func NewSession(path string) *Session {
	return &Session{path: path}
}

// Token returns the session token, creating and persisting it on first use.
// It never fails: if the file cannot be written the token lives in memory.
func (s *Session) Token(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token
	}

	if b, err := os.ReadFile(s.path); err == nil {
		if token := strings.TrimSpace(string(b)); token != "" {
			s.token = token
			return s.token
		}
	}

	s.token = auth.GenerateSessionToken(now)
	if err := writeFile(s.path, []byte(s.token)); err != nil {
		slog.Warn("failed to persist session token", "path", s.path, "error", err)
	}
	return s.token
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
