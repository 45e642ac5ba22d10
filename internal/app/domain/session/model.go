// Package session defines the authenticated customer session held by the
// client between launches.
package session

import (
	"errors"
	"time"
)

// ErrExpired is returned when a stored session exists but its token is no
// longer usable.
var ErrExpired = errors.New("session expired")

// Session is a bearer token plus the metadata needed to decide whether it is
// still usable without a round-trip.
type Session struct {
	Token      string    `json:"token"`
	Email      string    `json:"email"`
	IsCustomer bool      `json:"is_customer"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Valid reports whether the session exists and has not expired.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}
