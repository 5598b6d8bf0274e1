package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "ta_session"
	// DefaultSessionTTL is how long a session token stays valid
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Service signs and verifies session tokens. Tokens are HS256 JWTs whose
// subject is the user ID; they are set as an HttpOnly cookie on login.
type Service struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewService creates a session service. secure controls the cookie Secure flag.
func NewService(secret []byte, ttl time.Duration, secure bool) (*Service, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{secret: secret, ttl: ttl, secure: secure}, nil
}

// Issue signs a session token for the given user
func (s *Service) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(userID.String()).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return string(signed), nil
}

// Verify validates a session token and returns the user ID it was issued for
func (s *Service) Verify(token string) (uuid.UUID, error) {
	parsed, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256, s.secret), jwt.WithValidate(true))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session token: %w", err)
	}

	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session subject: %w", err)
	}

	return userID, nil
}

// SetCookie attaches the session cookie to the response
func (s *Service) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts the session token from the session cookie, or
// from a Bearer Authorization header for non-browser clients. Returns an
// empty string when no token is present.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	const bearerPrefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(bearerPrefix) && h[:len(bearerPrefix)] == bearerPrefix {
		return h[len(bearerPrefix):]
	}
	return ""
}
