package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const ctxTheme ctxKey = "pref_theme"

var validThemes = map[string]bool{"light": true, "dark": true, "system": true}

// Prefs extracts the theme preference (cookie > query) and stores it in
// context. Query-provided values are persisted in a cookie for ~30 days.
// This is per-request presentation state; the durable preference lives on
// the user profile.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		theme := "system"
		if c, err := r.Cookie("theme"); err == nil && validThemes[c.Value] {
			theme = c.Value
		}
		if qt := r.URL.Query().Get("theme"); validThemes[qt] {
			theme = qt
			http.SetCookie(w, &http.Cookie{Name: "theme", Value: theme, Path: "/", MaxAge: 86400 * 30})
		}
		ctx := context.WithValue(r.Context(), ctxTheme, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ThemeFrom returns the theme preference from context or the fallback.
func ThemeFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxTheme).(string); ok && v != "" {
		return v
	}
	return "system"
}
