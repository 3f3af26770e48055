// Package auth manages the signed session cookie and password hashing.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"go.uber.org/zap"
)

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")

	// DefaultTTL is how long a session cookie stays valid.
	DefaultTTL = 14 * 24 * time.Hour
)

// UserVerifier validates that a session's user still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

// Sessions issues and checks HMAC-signed session cookies of the form
// "<uid>.<expiry unix>.<signature>".
type Sessions struct {
	secret   []byte
	ttl      time.Duration
	verifier UserVerifier
	log      *zap.Logger
	now      func() time.Time
}

// NewSessions builds a session manager. verifier may be nil.
func NewSessions(secret string, verifier UserVerifier, log *zap.Logger) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{secret: []byte(secret), ttl: DefaultTTL, verifier: verifier, log: log, now: time.Now}
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Create sets a signed cookie with the user id.
func (s *Sessions) Create(w http.ResponseWriter, userID uint) {
	expires := s.now().Add(s.ttl)
	payload := strconv.FormatUint(uint64(userID), 10) + "." + strconv.FormatInt(expires.Unix(), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + s.sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// Clear deletes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse validates the cookie and returns the user id.
func (s *Sessions) Parse(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.sign(payload))) {
		return 0, false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || s.now().Unix() > exp {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches the user id to the request context when the cookie is valid.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := s.Parse(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless the request carries a session of an
// existing user. Sessions of deleted users are cleared.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			httpx.Error(w, s.log, apperr.Unauthorized())
			return
		}
		if s.verifier != nil && !s.verifier(r.Context(), uid) {
			s.Clear(w)
			httpx.Error(w, s.log, apperr.Unauthorized())
			return
		}
		next.ServeHTTP(w, r)
	})
}
