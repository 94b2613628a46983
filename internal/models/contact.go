package models

import "time"

// Contact is a person or company the user does business with.
// Referenced (not owned) by opportunities, communications and documents.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this contact (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Company string `gorm:"size:255" json:"company,omitempty"`
	Title   string `gorm:"size:255" json:"title,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	Website string `gorm:"size:255" json:"website,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Contact) GetUserID() uint {
	return c.UserID
}
