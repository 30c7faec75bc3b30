package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionHeader carries the signed session token in both directions.
const SessionHeader = "X-Session-Token"

type sessionKey struct{}

// SessionID returns the session identifier tagged onto the request, or ""
// when tagging failed.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Sessions mints and verifies signed session tokens. This is request
// tagging, not authentication: an invalid token gets a fresh session rather
// than a rejection.
type Sessions struct {
	signingKey []byte
}

// NewSessions creates a Sessions manager.
func NewSessions(signingKey string) *Sessions {
	return &Sessions{signingKey: []byte(signingKey)}
}

// Mint creates a signed token carrying a new session ID.
func (s *Sessions) Mint() (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:  sessionID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, sessionID, nil
}

// Verify extracts the session ID from a signed token.
func (s *Sessions) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return claims.Subject, nil
}

// Middleware tags every request with a session ID, minting a token when the
// request carries none or an invalid one. The minted token is returned in
// the response header for the UI to replay.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if token := r.Header.Get(SessionHeader); token != "" {
			if id, err := s.Verify(token); err == nil {
				sessionID = id
			}
		}
		if sessionID == "" {
			token, id, err := s.Mint()
			if err == nil {
				sessionID = id
				w.Header().Set(SessionHeader, token)
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
