package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sessionCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, userID)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	cookie := sessionCookie(t, 42)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	uid, ok := ParseSession(req)
	if !ok {
		t.Fatalf("ParseSession rejected a freshly created session")
	}
	if uid != 42 {
		t.Errorf("uid = %d, want 42", uid)
	}
}

func TestParseSessionRejectsTampering(t *testing.T) {
	cookie := sessionCookie(t, 42)

	tests := []struct {
		name  string
		value string
	}{
		{"forged user id", "7." + cookie.Value[len("42."):]},
		{"garbage signature", "42.bm90LWEtc2ln"},
		{"missing signature", "42"},
		{"empty value", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tt.value})
			if _, ok := ParseSession(req); ok {
				t.Errorf("ParseSession accepted tampered value %q", tt.value)
			}
		})
	}
}

func TestParseSessionNoCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ParseSession(req); ok {
		t.Errorf("ParseSession accepted request without cookie")
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("unauthenticated gets 401 json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		RequireAuth(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
	})

	t.Run("authenticated passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req = req.WithContext(WithUserID(req.Context(), 42))
		RequireAuth(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("verifier rejects stale session", func(t *testing.T) {
		SetUserVerifier(func(ctx context.Context, uid uint) bool { return false })
		defer SetUserVerifier(nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req = req.WithContext(WithUserID(req.Context(), 42))
		RequireAuth(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestMiddlewareAttachesUserID(t *testing.T) {
	var got uint
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, 7))
	Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	if !ok || got != 7 {
		t.Errorf("context user id = %d (ok=%v), want 7", got, ok)
	}
}
