package domain

import (
	"errors"
)

// Identity is the authenticated principal a ledger belongs to.
type Identity struct {
	UserID string
	Email  string
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// Authentication errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
