package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-crm/internal/auth"
	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/services"
)

// writeServiceError translates the service error taxonomy to HTTP exactly
// once, here. Services surface errors unmodified; nothing below this layer
// knows about status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	var se *services.StorageError
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrUnauthorized):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", ve.Violations)
	case errors.As(err, &se):
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// currentUserID pulls the authenticated caller from context. RequireAuth
// guarantees presence on protected routes.
func currentUserID(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// queryUint parses an optional positive integer query parameter.
func queryUint(r *http.Request, key string) *uint {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	id64, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id64 == 0 {
		return nil
	}
	id := uint(id64)
	return &id
}

// pagination reads page/limit query parameters with defaults.
func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}
