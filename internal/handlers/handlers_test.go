package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/auth"
	"github.com/diewo77/go-crm/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open db")
	err = db.AutoMigrate(
		&models.User{}, &models.UserProfile{}, &models.Contact{},
		&models.Opportunity{}, &models.Communication{}, &models.Document{},
	)
	require.NoError(t, err, "migrate")
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "hash"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// authedJSON builds a request carrying an authenticated user in context, the
// way the session middleware does on protected routes.
func authedJSON(t *testing.T, userID uint, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}

func withPathID(req *http.Request, id uint) *http.Request {
	req.SetPathValue("id", fmt.Sprintf("%d", id))
	return req
}

func statusIs(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
