package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/validation"
)

type CommunicationHandler struct {
	DB *gorm.DB
}

func NewCommunicationHandler(db *gorm.DB) *CommunicationHandler {
	return &CommunicationHandler{DB: db}
}

type communicationReq struct {
	Type          string     `json:"type"`
	Direction     string     `json:"direction"`
	Subject       string     `json:"subject"`
	Content       string     `json:"content"`
	ContactID     *uint      `json:"contact_id"`
	OpportunityID *uint      `json:"opportunity_id"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// communicationView attaches the derived status to the stored row.
type communicationView struct {
	models.Communication
	Status string `json:"status"`
}

func withDerivedStatus(c models.Communication, now time.Time) communicationView {
	return communicationView{Communication: c, Status: c.DerivedStatus(now)}
}

// List: GET /communications?type=&contact_id=&opportunity_id=&page=&limit=
func (h *CommunicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	limit, offset := pagination(r)

	dbq := h.DB.Where("user_id = ?", userID)
	if t := r.URL.Query().Get("type"); t != "" {
		ct := models.CommunicationType(t)
		if !ct.Valid() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"type": "invalid_value"})
			return
		}
		dbq = dbq.Where("type = ?", ct)
	}
	if cid := queryUint(r, "contact_id"); cid != nil {
		dbq = dbq.Where("contact_id = ?", *cid)
	}
	if oid := queryUint(r, "opportunity_id"); oid != nil {
		dbq = dbq.Where("opportunity_id = ?", *oid)
	}

	var total int64
	dbq.Model(&models.Communication{}).Count(&total)
	var comms []models.Communication
	if err := dbq.Preload("Contact").Preload("Opportunity").
		Order("updated_at desc").
		Limit(limit).Offset(offset).
		Find(&comms).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_communications", nil)
		return
	}
	now := time.Now()
	items := make([]communicationView, 0, len(comms))
	for _, c := range comms {
		items = append(items, withDerivedStatus(c, now))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func validateCommunication(req *communicationReq) validation.Violations {
	v := make(validation.Violations)
	if !models.CommunicationType(req.Type).Valid() {
		v["type"] = "invalid_value"
	}
	if !models.CommunicationDirection(req.Direction).Valid() {
		v["direction"] = "invalid_value"
	}
	return v
}

// Create: POST /communications
func (h *CommunicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	var req communicationReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateCommunication(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	comm := models.Communication{
		UserID:        userID,
		Type:          models.CommunicationType(req.Type),
		Direction:     models.CommunicationDirection(req.Direction),
		Subject:       strings.TrimSpace(req.Subject),
		Content:       req.Content,
		ContactID:     req.ContactID,
		OpportunityID: req.OpportunityID,
		ScheduledAt:   req.ScheduledAt,
		CompletedAt:   req.CompletedAt,
	}
	if err := h.DB.Create(&comm).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_communication", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, withDerivedStatus(comm, time.Now()))
}

// Get: GET /communications/{id}
func (h *CommunicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var comm models.Communication
	if err := h.DB.Preload("Contact").Preload("Opportunity").
		Where("id = ? AND user_id = ?", id, userID).First(&comm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_communication", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, withDerivedStatus(comm, time.Now()))
}

// Update: PUT /communications/{id}
func (h *CommunicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var comm models.Communication
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&comm).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req communicationReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateCommunication(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	comm.Type = models.CommunicationType(req.Type)
	comm.Direction = models.CommunicationDirection(req.Direction)
	comm.Subject = strings.TrimSpace(req.Subject)
	comm.Content = req.Content
	comm.ContactID = req.ContactID
	comm.OpportunityID = req.OpportunityID
	comm.ScheduledAt = req.ScheduledAt
	comm.CompletedAt = req.CompletedAt

	if err := h.DB.Save(&comm).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_communication", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, withDerivedStatus(comm, time.Now()))
}

// Complete: POST /communications/{id}/complete
func (h *CommunicationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var comm models.Communication
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&comm).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	now := time.Now()
	comm.CompletedAt = &now
	if err := h.DB.Save(&comm).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_communication", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, withDerivedStatus(comm, now))
}

// Delete: DELETE /communications/{id}
func (h *CommunicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Communication{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_communication", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
