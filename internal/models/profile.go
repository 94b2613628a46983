package models

import "time"

// Default profile values applied on first read.
const (
	DefaultTheme    = "system"
	DefaultTimezone = "UTC"
)

// UserProfile holds per-user presentation preferences. One row per user,
// auto-created with defaults the first time the profile is read.
type UserProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Theme    string `gorm:"size:20;default:'system'" json:"theme"`
	Timezone string `gorm:"size:64;default:'UTC'" json:"timezone"`
	// Preferences is an open bag of settings serialized as a JSON object.
	Preferences string `gorm:"type:text;default:'{}'" json:"preferences"`
}

// GetUserID implements the Ownable interface for authorization.
func (p *UserProfile) GetUserID() uint {
	return p.UserID
}
