package models

import "time"

// Document is an uploaded file attached to the user's CRM data.
// The bytes live on disk at Path; this row only records the metadata.
// Implements the Ownable interface for ownership-based authorization.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this document (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// StoredName is the generated on-disk filename, OriginalName the name
	// the file was uploaded with.
	StoredName   string `gorm:"size:255;not null" json:"stored_name"`
	OriginalName string `gorm:"size:255;not null" json:"original_name"`
	ContentType  string `gorm:"size:100" json:"content_type"`
	Size         int64  `json:"size"`
	Path         string `gorm:"size:500;not null" json:"-"`

	ContactID     *uint        `gorm:"index" json:"contact_id,omitempty"`
	Contact       *Contact     `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	OpportunityID *uint        `gorm:"index" json:"opportunity_id,omitempty"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (d *Document) GetUserID() uint {
	return d.UserID
}
