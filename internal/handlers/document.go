package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/storage"
)

type DocumentHandler struct {
	DB       *gorm.DB
	Store    *storage.FileStore
	MaxBytes int64
	Log      *zap.Logger
}

func NewDocumentHandler(db *gorm.DB, store *storage.FileStore, maxBytes int64, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{DB: db, Store: store, MaxBytes: maxBytes, Log: log}
}

// Upload: POST /documents (multipart: file, optional contact_id/opportunity_id)
// The file is written to storage first, then the metadata row is inserted.
// A failed insert does not remove the already-written file; the orphan is an
// accepted gap of the synchronous upload model.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"file": "required"})
		return
	}
	defer file.Close()
	if header.Size <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"file": "empty"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	storedName := uuid.NewString() + filepath.Ext(header.Filename)

	path, written, err := h.Store.Save(storedName, file)
	if err != nil {
		h.Log.Error("file save failed", zap.Uint("user_id", userID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
		return
	}

	doc := models.Document{
		UserID:        userID,
		StoredName:    storedName,
		OriginalName:  filepath.Base(header.Filename),
		ContentType:   contentType,
		Size:          written,
		Path:          path,
		ContactID:     formUint(r, "contact_id"),
		OpportunityID: formUint(r, "opportunity_id"),
	}
	if err := h.DB.Create(&doc).Error; err != nil {
		h.Log.Error("document insert failed", zap.Uint("user_id", userID), zap.String("path", path), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_document", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

// List: GET /documents?contact_id=&opportunity_id=&page=&limit=
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	limit, offset := pagination(r)

	dbq := h.DB.Where("user_id = ?", userID)
	if cid := queryUint(r, "contact_id"); cid != nil {
		dbq = dbq.Where("contact_id = ?", *cid)
	}
	if oid := queryUint(r, "opportunity_id"); oid != nil {
		dbq = dbq.Where("opportunity_id = ?", *oid)
	}

	var total int64
	dbq.Model(&models.Document{}).Count(&total)
	var docs []models.Document
	if err := dbq.Order("created_at desc").Limit(limit).Offset(offset).Find(&docs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_documents", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": docs, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /documents/{id} – metadata only
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var doc models.Document
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_document", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// Download: GET /documents/{id}/download – streams the stored bytes
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var doc models.Document
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	f, err := h.Store.Open(doc.Path)
	if err != nil {
		// Metadata row without bytes on disk behaves as absent.
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.OriginalName+`"`)
	http.ServeContent(w, r, doc.OriginalName, doc.UpdatedAt, f)
}

// Delete: DELETE /documents/{id} – delete path then remove record
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var doc models.Document
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.Store.Remove(doc.Path); err != nil && h.Store.Exists(doc.Path) {
		h.Log.Error("file remove failed", zap.Uint("document_id", doc.ID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
		return
	}
	if err := h.DB.Delete(&doc).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_document", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func formUint(r *http.Request, key string) *uint {
	v := strings.TrimSpace(r.FormValue(key))
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
