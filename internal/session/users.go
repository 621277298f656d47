package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the permission level of a signed-in user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ErrUnknownUser is returned by a UserDirectory for an email it does not hold.
var ErrUnknownUser = errors.New("unknown user")

// User is a directory entry.
type User struct {
	Email        string
	Role         Role
	PasswordHash []byte
}

// UserDirectory looks users up by email.
type UserDirectory interface {
	Lookup(ctx context.Context, email string) (User, error)
}

// StaticUsers is a fixed directory, normally loaded from configuration.
// Emails are matched case-insensitively.
type StaticUsers struct {
	users map[string]User
}

// NewStaticUsers builds a directory from users.
func NewStaticUsers(users ...User) *StaticUsers {
	s := &StaticUsers{users: make(map[string]User, len(users))}
	for _, u := range users {
		s.users[normalizeEmail(u.Email)] = u
	}
	return s
}

// ParseUsers parses "email:role:bcrypt-hash" entries.
func ParseUsers(entries []string) (*StaticUsers, error) {
	users := make([]User, 0, len(entries))
	for i, entry := range entries {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("user entry %d: want email:role:hash", i+1)
		}
		role := Role(parts[1])
		if role != RoleAdmin && role != RoleMember {
			return nil, fmt.Errorf("user entry %d: unknown role %q", i+1, parts[1])
		}
		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("user entry %d: %w", i+1, err)
		}
		users = append(users, User{Email: parts[0], Role: role, PasswordHash: []byte(parts[2])})
	}
	return NewStaticUsers(users...), nil
}

func (s *StaticUsers) Lookup(_ context.Context, email string) (User, error) {
	u, ok := s.users[normalizeEmail(email)]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return u, nil
}

// HashPassword returns a bcrypt hash suitable for a user entry.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
