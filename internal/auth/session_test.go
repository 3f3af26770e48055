package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func roundTrip(t *testing.T, s *Sessions, uid uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Create(rec, uid)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewSessions("secret", nil, nil)
	uid, ok := s.Parse(roundTrip(t, s, 42))
	if !ok || uid != 42 {
		t.Fatalf("Parse = %d, %v", uid, ok)
	}
}

func TestSessionRejectsOtherSecret(t *testing.T) {
	req := roundTrip(t, NewSessions("secret", nil, nil), 42)
	if _, ok := NewSessions("other", nil, nil).Parse(req); ok {
		t.Fatal("cookie signed with another secret accepted")
	}
}

func TestSessionRejectsTampering(t *testing.T) {
	s := NewSessions("secret", nil, nil)
	req := roundTrip(t, s, 42)
	c, _ := req.Cookie(sessionCookieName)
	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "1" + strings.TrimPrefix(c.Value, "42")})
	if _, ok := s.Parse(forged); ok {
		t.Fatal("tampered cookie accepted")
	}
}

func TestSessionExpires(t *testing.T) {
	s := NewSessions("secret", nil, nil)
	req := roundTrip(t, s, 42)
	s.now = func() time.Time { return time.Now().Add(DefaultTTL + time.Hour) }
	if _, ok := s.Parse(req); ok {
		t.Fatal("expired cookie accepted")
	}
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	known := func(_ context.Context, uid uint) bool { return uid == 1 }
	s := NewSessions("secret", known, nil)
	h := s.Middleware(s.RequireAuth(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, roundTrip(t, s, 1))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("known user status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, roundTrip(t, s, 2))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), sessionCookieName+"=;") {
		t.Fatalf("session not cleared: %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "pw") || CheckPassword(h, "nope") {
		t.Fatal("bcrypt round trip failed")
	}
}
