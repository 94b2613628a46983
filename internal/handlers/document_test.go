package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diewo77/go-crm/internal/auth"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/storage"
)

func newDocumentHandler(t *testing.T) (*DocumentHandler, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewDocumentHandler(newTestDB(t), store, 1<<20, zap.NewNop()), store
}

func uploadRequest(t *testing.T, userID uint, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestDocumentUploadDownloadDelete(t *testing.T) {
	h, _ := newDocumentHandler(t)
	user := newTestUser(t, h.DB, "doc-cycle@test")
	content := []byte("contract body")

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, user.ID, "contract.pdf", content, nil))
	statusIs(t, rec, http.StatusCreated)

	var doc models.Document
	decodeJSON(t, rec, &doc)
	assert.Equal(t, "contract.pdf", doc.OriginalName)
	assert.NotEqual(t, "contract.pdf", doc.StoredName, "stored under a generated name")
	assert.EqualValues(t, len(content), doc.Size)

	// Path is never serialized; read it back from the row.
	var stored models.Document
	require.NoError(t, h.DB.First(&stored, doc.ID).Error)
	assert.True(t, h.Store.Exists(stored.Path), "bytes must be on disk after upload")

	rec = httptest.NewRecorder()
	h.Download(rec, withPathID(authedJSON(t, user.ID, http.MethodGet, "/documents/1/download", nil), doc.ID))
	statusIs(t, rec, http.StatusOK)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="contract.pdf"`)

	rec = httptest.NewRecorder()
	h.Delete(rec, withPathID(authedJSON(t, user.ID, http.MethodDelete, "/documents/1", nil), doc.ID))
	statusIs(t, rec, http.StatusOK)
	assert.False(t, h.Store.Exists(stored.Path), "bytes must be gone after delete")

	rec = httptest.NewRecorder()
	h.Download(rec, withPathID(authedJSON(t, user.ID, http.MethodGet, "/documents/1/download", nil), doc.ID))
	statusIs(t, rec, http.StatusNotFound)
}

func TestDocumentUploadRequiresFile(t *testing.T) {
	h, _ := newDocumentHandler(t)
	user := newTestUser(t, h.DB, "doc-nofile@test")

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, user.ID, "", nil, map[string]string{"contact_id": "1"}))
	statusIs(t, rec, http.StatusBadRequest)
}

func TestDocumentUploadLinksEntities(t *testing.T) {
	h, _ := newDocumentHandler(t)
	user := newTestUser(t, h.DB, "doc-links@test")

	contact := models.Contact{UserID: user.ID, Name: "Linked"}
	require.NoError(t, h.DB.Create(&contact).Error)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, user.ID, "notes.txt", []byte("x"), map[string]string{
		"contact_id": "1",
	}))
	statusIs(t, rec, http.StatusCreated)

	var doc models.Document
	decodeJSON(t, rec, &doc)
	require.NotNil(t, doc.ContactID)
	assert.Equal(t, contact.ID, *doc.ContactID)
}

func TestDocumentDownloadForeignRowIs404(t *testing.T) {
	h, _ := newDocumentHandler(t)
	owner := newTestUser(t, h.DB, "doc-owner@test")
	other := newTestUser(t, h.DB, "doc-other@test")

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, owner.ID, "secret.txt", []byte("s"), nil))
	statusIs(t, rec, http.StatusCreated)
	var doc models.Document
	decodeJSON(t, rec, &doc)

	rec = httptest.NewRecorder()
	h.Download(rec, withPathID(authedJSON(t, other.ID, http.MethodGet, "/documents/1/download", nil), doc.ID))
	statusIs(t, rec, http.StatusNotFound)
}

func TestDocumentMissingFileBehavesAsAbsent(t *testing.T) {
	h, store := newDocumentHandler(t)
	user := newTestUser(t, h.DB, "doc-orphan@test")

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, user.ID, "gone.txt", []byte("g"), nil))
	statusIs(t, rec, http.StatusCreated)
	var doc models.Document
	decodeJSON(t, rec, &doc)
	var stored models.Document
	require.NoError(t, h.DB.First(&stored, doc.ID).Error)

	require.NoError(t, store.Remove(stored.Path))

	rec = httptest.NewRecorder()
	h.Download(rec, withPathID(authedJSON(t, user.ID, http.MethodGet, "/documents/1/download", nil), doc.ID))
	statusIs(t, rec, http.StatusNotFound)
}
