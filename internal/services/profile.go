package services

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/validation"
)

// ProfileService manages the one-to-one user preference row.
type ProfileService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProfileService(db *gorm.DB, log *zap.Logger) *ProfileService {
	return &ProfileService{db: db, log: log}
}

// GetOrCreate returns the user's profile, creating it with defaults on first read.
func (s *ProfileService) GetOrCreate(userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr("load profile", err)
	}
	profile = models.UserProfile{
		UserID:      userID,
		Theme:       models.DefaultTheme,
		Timezone:    models.DefaultTimezone,
		Preferences: "{}",
	}
	if err := s.db.Create(&profile).Error; err != nil {
		s.log.Error("profile create failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("create profile", err)
	}
	return &profile, nil
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	Theme       *string
	Timezone    *string
	Preferences *string
}

// Update validates and persists profile changes.
func (s *ProfileService) Update(userID uint, req ProfileUpdate) (*models.UserProfile, error) {
	profile, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	v := make(validation.Violations)
	if req.Theme != nil {
		validation.OneOf("theme", *req.Theme, []string{"light", "dark", "system"}, v)
	}
	if req.Timezone != nil {
		validation.Required("timezone", *req.Timezone, v)
	}
	if req.Preferences != nil {
		validation.JSONObject("preferences", *req.Preferences, v)
	}
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	if req.Theme != nil {
		profile.Theme = *req.Theme
	}
	if req.Timezone != nil {
		profile.Timezone = *req.Timezone
	}
	if req.Preferences != nil {
		profile.Preferences = *req.Preferences
	}
	if err := s.db.Save(profile).Error; err != nil {
		s.log.Error("profile update failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("save profile", err)
	}
	return profile, nil
}
