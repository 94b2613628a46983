package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diewo77/go-crm/internal/models"
)

func strptr(s string) *string { return &s }

func TestProfileGetOrCreateDefaults(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "profile@test")
	svc := NewProfileService(db, zap.NewNop())

	profile, err := svc.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTheme, profile.Theme)
	assert.Equal(t, models.DefaultTimezone, profile.Timezone)
	assert.Equal(t, "{}", profile.Preferences)

	// Second read returns the same row, not a duplicate.
	again, err := svc.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.UserProfile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProfileUpdate(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "profile-update@test")
	svc := NewProfileService(db, zap.NewNop())

	updated, err := svc.Update(user.ID, ProfileUpdate{
		Theme:       strptr("dark"),
		Timezone:    strptr("Europe/Paris"),
		Preferences: strptr(`{"density":"compact"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Theme)
	assert.Equal(t, "Europe/Paris", updated.Timezone)

	// Partial update leaves other fields alone.
	updated, err = svc.Update(user.ID, ProfileUpdate{Theme: strptr("light")})
	require.NoError(t, err)
	assert.Equal(t, "light", updated.Theme)
	assert.Equal(t, "Europe/Paris", updated.Timezone)
	assert.Equal(t, `{"density":"compact"}`, updated.Preferences)
}

func TestProfileUpdateValidation(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "profile-invalid@test")
	svc := NewProfileService(db, zap.NewNop())

	tests := []struct {
		name  string
		req   ProfileUpdate
		field string
	}{
		{"bad theme", ProfileUpdate{Theme: strptr("neon")}, "theme"},
		{"empty timezone", ProfileUpdate{Timezone: strptr("")}, "timezone"},
		{"preferences not json", ProfileUpdate{Preferences: strptr("not json")}, "preferences"},
		{"preferences json array", ProfileUpdate{Preferences: strptr(`[1,2]`)}, "preferences"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(user.ID, tt.req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Violations, tt.field)
		})
	}
}
