package utils

import (
	"context"
	"net"
	"net/http"
	"time"
)

type contextKey string

const (
	ContextUserIDKey    contextKey = "userID"
	ContextSessionIDKey contextKey = "sessionID"
)

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID := ctx.Value(ContextSessionIDKey)
	sessionIDStr, ok := sessionID.(string)
	return sessionIDStr, ok
}

// SessionData is the middleware-facing view of a session: just enough to
// authorize a request without importing the session package.
type SessionData struct {
	SessionID string
	UserID    string
	UserEmail string
	ExpiresAt time.Time
}

// ClientIP extracts the client address from a request, without the port.
// Deliberately ignores X-Forwarded-For: the IP a session is bound to must
// not be spoofable by a request header.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
