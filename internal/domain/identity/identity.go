package identity

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("identity not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type Identity struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	IsStaff      bool      `json:"-"`
	DateJoined   time.Time `json:"-"`
}

// DisplayName is "first last" when both names are set, otherwise the username.
func (i Identity) DisplayName() string {
	return DisplayName(i.FirstName, i.LastName, i.Username)
}

func DisplayName(first, last, username string) string {
	if first != "" && last != "" {
		return first + " " + last
	}
	return username
}

type CreateIdentityRequest struct {
	Username  string `json:"username" binding:"required,max=150,username"`
	Password  string `json:"password" binding:"required,maxbytes=72"`
	Email     string `json:"email" binding:"omitempty,email,max=254"`
	FirstName string `json:"first_name" binding:"omitempty,max=150"`
	LastName  string `json:"last_name" binding:"omitempty,max=150"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Actor is the authenticated identity attached to a single request.
type Actor struct {
	ID       int64
	Username string
	IsStaff  bool
}

// CanAccess reports whether the actor may read or modify records owned by ownerID.
func (a Actor) CanAccess(ownerID int64) bool {
	return a.ID == ownerID || a.IsStaff
}
