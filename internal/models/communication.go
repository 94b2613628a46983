package models

import "time"

// CommunicationType classifies a logged interaction.
type CommunicationType string

const (
	CommTypeEmail   CommunicationType = "email"
	CommTypePhone   CommunicationType = "phone"
	CommTypeMeeting CommunicationType = "meeting"
	CommTypeTask    CommunicationType = "task"
)

// Valid reports whether the type is one of the known kinds.
func (t CommunicationType) Valid() bool {
	switch t {
	case CommTypeEmail, CommTypePhone, CommTypeMeeting, CommTypeTask:
		return true
	}
	return false
}

// CommunicationDirection marks who initiated the interaction.
type CommunicationDirection string

const (
	DirectionInbound  CommunicationDirection = "inbound"
	DirectionOutbound CommunicationDirection = "outbound"
)

// Valid reports whether the direction is known.
func (d CommunicationDirection) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// Derived communication statuses. Status is never stored; it is computed
// from the scheduled/completed timestamps at read time.
const (
	CommStatusCompleted = "completed"
	CommStatusScheduled = "scheduled"
	CommStatusOverdue   = "overdue"
	CommStatusLogged    = "logged"
)

// Communication records an interaction with a contact or opportunity.
// Implements the Ownable interface for ownership-based authorization.
type Communication struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this communication (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Type      CommunicationType      `gorm:"size:20;not null" json:"type"`
	Direction CommunicationDirection `gorm:"size:20;not null" json:"direction"`
	Subject   string                 `gorm:"size:255" json:"subject,omitempty"`
	Content   string                 `gorm:"type:text" json:"content,omitempty"`

	ContactID     *uint        `gorm:"index" json:"contact_id,omitempty"`
	Contact       *Contact     `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	OpportunityID *uint        `gorm:"index" json:"opportunity_id,omitempty"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Communication) GetUserID() uint {
	return c.UserID
}

// DerivedStatus computes the display status: completed if a completion date
// is set, scheduled if the scheduled date is still in the future, overdue if
// it has passed without completion, logged otherwise.
func (c *Communication) DerivedStatus(now time.Time) string {
	if c.CompletedAt != nil {
		return CommStatusCompleted
	}
	if c.ScheduledAt != nil {
		if c.ScheduledAt.After(now) {
			return CommStatusScheduled
		}
		return CommStatusOverdue
	}
	return CommStatusLogged
}
