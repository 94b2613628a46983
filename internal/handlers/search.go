package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/services"
)

type SearchHandler struct {
	Svc *services.SearchService
}

func NewSearchHandler(svc *services.SearchService) *SearchHandler {
	return &SearchHandler{Svc: svc}
}

// Search: GET /search?q=&type=&limit=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"limit": "invalid_value"})
			return
		}
		limit = n
	}
	resp, err := h.Svc.Search(userID, r.URL.Query().Get("q"), r.URL.Query().Get("type"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}
