package session

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side half of a login. A token is only honoured while
// its session record exists.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
