package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 12 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrNotAdmin           = errors.New("admin role required")
)

// Session is the state held for a signed-in user.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session may use admin endpoints.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Manager creates, reads and clears sessions.
type Manager struct {
	backend Backend
	users   UserDirectory
	ttl     time.Duration
	now     func() time.Time
}

// NewManager creates a manager. ttl <= 0 uses DefaultTTL.
func NewManager(backend Backend, users UserDirectory, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{backend: backend, users: users, ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login checks credentials and stores a new session. Unknown emails and
// wrong passwords return the same ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := m.users.Lookup(ctx, email)
	if errors.Is(err, ErrUnknownUser) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := m.now()
	s := &Session{
		Token:     uuid.NewString(),
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := m.backend.Set(ctx, s.Token, data, m.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return s, nil
}

// Current returns the session for token, or ErrNoSession.
func (m *Manager) Current(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	data, err := m.backend.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.backend.Delete(ctx, token)
		return nil, ErrNoSession
	}
	return &s, nil
}

// RequireAdmin returns the session for token if it belongs to an admin.
func (m *Manager) RequireAdmin(ctx context.Context, token string) (*Session, error) {
	s, err := m.Current(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s, nil
}

// Logout clears the session. Logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.backend.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
