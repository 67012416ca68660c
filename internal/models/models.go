package models

import "time"

type User struct {
	ID        int64
	Name      string
	Email     string
	PassHash  string
	CreatedAt time.Time
}

// Session is the server-side record of a long-lived login. Only the
// SHA-256 fingerprint of the opaque secret is stored, never the secret.
type Session struct {
	ID          int64
	UserID      int64
	Fingerprint string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// * IsExpired проверяет, истекла ли сессия
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthEvent is published to the message broker after every lifecycle
// transition (register/login/refresh/logout).
type AuthEvent struct {
	EventID string    `json:"event_id"`
	Kind    string    `json:"kind"`
	UserID  int64     `json:"user_id,omitempty"`
	Email   string    `json:"email,omitempty"`
	Success bool      `json:"success"`
	At      time.Time `json:"at"`
}
