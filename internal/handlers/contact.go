package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/validation"
)

type ContactHandler struct {
	DB *gorm.DB
}

func NewContactHandler(db *gorm.DB) *ContactHandler { return &ContactHandler{DB: db} }

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Title   string `json:"title"`
	Address string `json:"address"`
	Website string `json:"website"`
}

func (req *contactReq) apply(c *models.Contact) {
	c.Name = strings.TrimSpace(req.Name)
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = strings.TrimSpace(req.Phone)
	c.Company = strings.TrimSpace(req.Company)
	c.Title = strings.TrimSpace(req.Title)
	c.Address = strings.TrimSpace(req.Address)
	c.Website = strings.TrimSpace(req.Website)
}

// List: GET /contacts?q=&page=&limit=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	limit, offset := pagination(r)

	dbq := h.DB.Where("user_id = ?", userID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(email) LIKE ? OR lower(company) LIKE ?", like, like, like)
	}

	var total int64
	dbq.Model(&models.Contact{}).Count(&total)
	var contacts []models.Contact
	if err := dbq.Order("name").Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_contacts", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": contacts, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	var req contactReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	contact := models.Contact{UserID: userID}
	req.apply(&contact)

	v := make(validation.Violations)
	validation.Required("name", contact.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&contact).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_contact", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, contact)
}

// Get: GET /contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var contact models.Contact
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_contact", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

// Update: PUT /contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var contact models.Contact
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&contact).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req contactReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.apply(&contact)

	v := make(validation.Violations)
	validation.Required("name", contact.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Save(&contact).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_contact", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

// Delete: DELETE /contacts/{id}
// Dependent rows keep existing but lose their contact reference; there is no
// cascade beyond clearing the join column.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var contact models.Contact
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&contact).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Opportunity{}, &models.Communication{}, &models.Document{}} {
			if err := tx.Model(m).Where("user_id = ? AND contact_id = ?", userID, id).Update("contact_id", nil).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&contact).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_contact", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
