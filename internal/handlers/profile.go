package handlers

import (
	"net/http"

	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/services"
)

type ProfileHandler struct {
	Svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{Svc: svc}
}

// Get: GET /profile – auto-creates defaults on first read
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.GetOrCreate(currentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

type profileReq struct {
	Theme       *string `json:"theme"`
	Timezone    *string `json:"timezone"`
	Preferences *string `json:"preferences"`
}

// Update: PUT /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	profile, err := h.Svc.Update(currentUserID(r), services.ProfileUpdate{
		Theme:       req.Theme,
		Timezone:    req.Timezone,
		Preferences: req.Preferences,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
