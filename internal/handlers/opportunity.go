package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/internal/validation"
)

type OpportunityHandler struct {
	DB       *gorm.DB
	Pipeline *services.PipelineService
}

func NewOpportunityHandler(db *gorm.DB, pipeline *services.PipelineService) *OpportunityHandler {
	return &OpportunityHandler{DB: db, Pipeline: pipeline}
}

type opportunityReq struct {
	ContactID         *uint      `json:"contact_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Value             *float64   `json:"value"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	Probability       *int       `json:"probability"`
	StageOrder        *int       `json:"stage_order"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	WonDate           *time.Time `json:"won_date"`
	LostReason        string     `json:"lost_reason"`
}

// List: GET /opportunities?q=&status=&contact_id=&page=&limit=
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	limit, offset := pagination(r)

	dbq := h.DB.Where("user_id = ?", userID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(title) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	if st := r.URL.Query().Get("status"); st != "" {
		status := models.OpportunityStatus(st)
		if !status.Valid() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "invalid_value"})
			return
		}
		dbq = dbq.Where("status = ?", status)
	}
	if cid := queryUint(r, "contact_id"); cid != nil {
		dbq = dbq.Where("contact_id = ?", *cid)
	}

	var total int64
	dbq.Model(&models.Opportunity{}).Count(&total)
	var opps []models.Opportunity
	if err := dbq.Preload("Contact").
		Order("status, stage_order, updated_at desc").
		Limit(limit).Offset(offset).
		Find(&opps).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_opportunities", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": opps, "total": total, "limit": limit, "offset": offset})
}

// Board: GET /opportunities/board?q=&status=&contact_id=
func (h *OpportunityHandler) Board(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	filter := services.BoardFilter{
		Query:     strings.TrimSpace(r.URL.Query().Get("q")),
		Status:    models.OpportunityStatus(r.URL.Query().Get("status")),
		ContactID: queryUint(r, "contact_id"),
	}
	columns, err := h.Pipeline.Board(userID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"columns": columns})
}

// Stats: GET /opportunities/stats
func (h *OpportunityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Pipeline.Stats(currentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

// Create: POST /opportunities
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	var req opportunityReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	status := models.StatusLead
	if req.Status != "" {
		status = models.OpportunityStatus(req.Status)
	}
	v := make(validation.Violations)
	validation.Required("title", strings.TrimSpace(req.Title), v)
	if !status.Valid() {
		v["status"] = "invalid_value"
	}
	if req.Probability != nil {
		validation.RangeInt("probability", *req.Probability, 0, 100, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	opp := models.Opportunity{
		UserID:            userID,
		ContactID:         req.ContactID,
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Value:             req.Value,
		Currency:          strings.ToUpper(strings.TrimSpace(req.Currency)),
		ExpectedCloseDate: req.ExpectedCloseDate,
	}
	if opp.Currency == "" {
		opp.Currency = "USD"
	}
	if req.Probability != nil {
		opp.Probability = *req.Probability
	}
	if req.StageOrder != nil {
		opp.StageOrder = *req.StageOrder
	}
	opp.ApplyStatusEffects(status, req.WonDate, req.LostReason, time.Now())

	if err := h.DB.Create(&opp).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_opportunity", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, opp)
}

// Get: GET /opportunities/{id}
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var opp models.Opportunity
	if err := h.DB.Preload("Contact").Where("id = ? AND user_id = ?", id, userID).First(&opp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_opportunity", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, opp)
}

// Update: PUT /opportunities/{id}
// Status changes go through the same side-effect logic as Move.
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var opp models.Opportunity
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&opp).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req opportunityReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	status := opp.Status
	if req.Status != "" {
		status = models.OpportunityStatus(req.Status)
	}
	v := make(validation.Violations)
	validation.Required("title", strings.TrimSpace(req.Title), v)
	if !status.Valid() {
		v["status"] = "invalid_value"
	}
	if req.Probability != nil {
		validation.RangeInt("probability", *req.Probability, 0, 100, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	opp.ContactID = req.ContactID
	opp.Title = strings.TrimSpace(req.Title)
	opp.Description = req.Description
	opp.Value = req.Value
	if c := strings.ToUpper(strings.TrimSpace(req.Currency)); c != "" {
		opp.Currency = c
	}
	opp.ExpectedCloseDate = req.ExpectedCloseDate
	if req.Probability != nil {
		opp.Probability = *req.Probability
	}
	if req.StageOrder != nil {
		opp.StageOrder = *req.StageOrder
	}
	opp.ApplyStatusEffects(status, req.WonDate, req.LostReason, time.Now())

	if err := h.DB.Save(&opp).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_opportunity", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, opp)
}

type moveReq struct {
	Status     string     `json:"status"`
	StageOrder *int       `json:"stage_order"`
	WonDate    *time.Time `json:"won_date"`
	LostReason string     `json:"lost_reason"`
}

// Move: POST /opportunities/{id}/move
func (h *OpportunityHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req moveReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	// The target order is always explicit; the caller computes insertion
	// position client-side and the manager never infers it.
	if req.StageOrder == nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"stage_order": "required"})
		return
	}
	opp, err := h.Pipeline.Move(userID, id, services.MoveRequest{
		Status:     models.OpportunityStatus(req.Status),
		StageOrder: *req.StageOrder,
		WonDate:    req.WonDate,
		LostReason: req.LostReason,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, opp)
}

// Delete: DELETE /opportunities/{id}
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var opp models.Opportunity
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&opp).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Communication{}, &models.Document{}} {
			if err := tx.Model(m).Where("user_id = ? AND opportunity_id = ?", userID, id).Update("opportunity_id", nil).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&opp).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_opportunity", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
