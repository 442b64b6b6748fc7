// Package auth resolves the signed-in marketplace user against the auth provider.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/cuongbtq/farmhand/internal/domain"
)

var (
	// ErrNotConfigured is returned by operations that need provider credentials
	ErrNotConfigured = errors.New("auth provider is not configured")
	// ErrInvalidCredentials is returned when sign-in is refused
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when the provider does not recognise an access token
	ErrInvalidToken = errors.New("invalid or expired access token")
	// ErrNoSession is returned by a Store holding no session
	ErrNoSession = errors.New("no stored session")
)

// Session is the caller identity passed explicitly to every client operation.
// The zero value is a configured client with nobody signed in.
type Session struct {
	UserID      string      `yaml:"user_id"`
	Email       string      `yaml:"email,omitempty"`
	Role        domain.Role `yaml:"role"`
	AccessToken string      `yaml:"access_token"`
	ExpiresAt   time.Time   `yaml:"expires_at,omitempty"`

	unconfigured bool
}

// Unconfigured is the session used when provider credentials are missing
func Unconfigured() Session {
	return Session{unconfigured: true}
}

// Configured reports whether the session came from a configured provider
func (s Session) Configured() bool {
	return !s.unconfigured
}

// SignedIn reports whether a user is present
func (s Session) SignedIn() bool {
	return !s.unconfigured && s.UserID != ""
}

// Expired reports whether the access token is past its expiry at now
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Provider yields the current session
type Provider interface {
	Session(ctx context.Context) (Session, error)
}
