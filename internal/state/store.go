// Package state persists the small amount of client state that outlives a
// single command: session cookies, the chat session id, the legacy price
// alert cache and one-shot values such as the post-login return URL.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lukman83/pricehub/internal/models"
)

// One-shot keys.
const (
	AuthNotice = "auth_notice"
	ReturnURL  = "return_url"
)

type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

type document struct {
	Cookies       map[string]Cookie `json:"cookies,omitempty"`
	ChatSessionID string            `json:"chat_session_id,omitempty"`
	Alerts        []models.Alert    `json:"alerts,omitempty"`
	OneShot       map[string]string `json:"one_shot,omitempty"`
}

// Store is a JSON-file backed state store. A Store with no path keeps
// everything in memory. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
	now  func() time.Time
}

// Open loads the state file at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("decode state %s: %w", path, err)
		}
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	return &Store{now: time.Now}
}

// Cookie returns an unexpired cookie value. Expired cookies are dropped.
func (s *Store) Cookie(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.doc.Cookies[name]
	if !ok {
		return "", false
	}
	if !c.Expires.IsZero() && !s.now().Before(c.Expires) {
		delete(s.doc.Cookies, name)
		return "", false
	}
	return c.Value, true
}

// SetCookie stores a cookie that expires after maxAge.
func (s *Store) SetCookie(name, value string, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Cookies == nil {
		s.doc.Cookies = make(map[string]Cookie)
	}
	s.doc.Cookies[name] = Cookie{Name: name, Value: value, Expires: s.now().Add(maxAge)}
	return s.saveLocked()
}

func (s *Store) DeleteCookie(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		delete(s.doc.Cookies, name)
	}
	return s.saveLocked()
}

// ChatSessionID returns the chat session id, generating it on first use.
func (s *Store) ChatSessionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.ChatSessionID != "" {
		return s.doc.ChatSessionID, nil
	}
	s.doc.ChatSessionID = uuid.NewString()
	return s.doc.ChatSessionID, s.saveLocked()
}

func (s *Store) CachedAlerts() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Alert(nil), s.doc.Alerts...)
}

func (s *Store) CacheAlerts(alerts []models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Alerts = append([]models.Alert(nil), alerts...)
	return s.saveLocked()
}

// SetOnce stores a value that TakeOnce returns exactly once.
func (s *Store) SetOnce(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.OneShot == nil {
		s.doc.OneShot = make(map[string]string)
	}
	s.doc.OneShot[key] = value
	return s.saveLocked()
}

// TakeOnce returns and removes a one-shot value.
func (s *Store) TakeOnce(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.doc.OneShot[key]
	if !ok {
		return "", false, nil
	}
	delete(s.doc.OneShot, key)
	return v, true, s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
