package middleware

import (
	"context"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"

	"github.com/Gateward/GW-Backend/internal/db"
	"github.com/Gateward/GW-Backend/internal/utils"
)

// SessionFetcher resolves and validates the session identified by a request.
// Implementations reject invalid, hard-expired, IP-mismatched and bad-token
// sessions with an error; soft-expired sessions come back as data with a
// past ExpiresAt.
type SessionFetcher interface {
	FindSessionByID(id, token, ip string) (utils.SessionData, error)
}

// SessionCookieNames carries the configured cookie names: the public session
// id and (when secured) the token cookie, which is only ever set over HTTPS.
type SessionCookieNames struct {
	ID    string
	Token string
}

// SessionMiddleware authorizes requests through the fetcher. Expiry is
// compared against the injected clock, the same one the session manager
// validates with.
func SessionMiddleware(fetcher SessionFetcher, cookies SessionCookieNames, clock clockwork.Clock) func(http.Handler) http.Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookies.ID)
			if err != nil {
				http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
				return
			}

			token := ""
			if cookies.Token != "" {
				if tc, err := r.Cookie(cookies.Token); err == nil {
					token = tc.Value
				}
			}

			session, err := fetcher.FindSessionByID(cookie.Value, token, utils.ClientIP(r))
			if err != nil {
				http.Error(w, "Couldn't find session", http.StatusUnauthorized)
				return
			}

			if session.ExpiresAt.Before(clock.Now()) {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, session.UserID)
			ctx = context.WithValue(ctx, utils.ContextSessionIDKey, session.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func allowedOrigins() map[string]struct{} {
	allowed := map[string]struct{}{
		"http://localhost:5173": {},
		"http://localhost:5174": {},
	}
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	return allowed
}

var allowed = allowedOrigins()

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		w.Header().Set("Access-Control-Expose-Headers", "Retry-After, Cache-Control")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type User struct {
	ID    string         `gorm:"primaryKey"`
	Roles pq.StringArray `gorm:"type:text[]"`
}

func (User) TableName() string { return "app_auth.users" }

// RoleMiddleware admits only users carrying the given role. Must run after
// SessionMiddleware so the user ID is already in context.
func RoleMiddleware(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
				return
			}

			var user User
			if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
				http.Error(w, "Unauthorized: user not found", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(user.Roles, role) {
				http.Error(w, "Forbidden: "+role+" access required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
