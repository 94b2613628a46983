package models

import (
	"time"
)

// OpportunityStatus represents a stage in the sales pipeline.
type OpportunityStatus string

const (
	StatusLead        OpportunityStatus = "lead"
	StatusQualified   OpportunityStatus = "qualified"
	StatusProposal    OpportunityStatus = "proposal"
	StatusNegotiating OpportunityStatus = "negotiating"
	StatusClosedWon   OpportunityStatus = "closed-won"
	StatusClosedLost  OpportunityStatus = "closed-lost"
)

// PipelineStages lists every stage in fixed board order.
// Kanban buckets are always emitted in this order regardless of data order.
var PipelineStages = []OpportunityStatus{
	StatusLead,
	StatusQualified,
	StatusProposal,
	StatusNegotiating,
	StatusClosedWon,
	StatusClosedLost,
}

// Valid reports whether the status is one of the fixed pipeline stages.
func (s OpportunityStatus) Valid() bool {
	for _, st := range PipelineStages {
		if s == st {
			return true
		}
	}
	return false
}

// Closed reports whether the status is a terminal stage.
func (s OpportunityStatus) Closed() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// Opportunity is a deal moving through the sales pipeline.
// Implements the Ownable interface for ownership-based authorization.
type Opportunity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this opportunity (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// Optional link to a contact
	ContactID *uint    `gorm:"index" json:"contact_id,omitempty"`
	Contact   *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`

	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	Value       *float64 `gorm:"type:decimal(12,2)" json:"value,omitempty"`
	Currency    string   `gorm:"size:3;default:'USD'" json:"currency"`

	Status      OpportunityStatus `gorm:"size:20;default:'lead';index" json:"status"`
	Probability int               `gorm:"default:0" json:"probability"`
	// StageOrder determines position within the status column.
	StageOrder int `gorm:"default:0" json:"stage_order"`

	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	WonDate           *time.Time `json:"won_date,omitempty"`
	LostReason        string     `gorm:"size:500" json:"lost_reason,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (o *Opportunity) GetUserID() uint {
	return o.UserID
}

// IsOpen reports whether the opportunity is still in the active pipeline.
func (o *Opportunity) IsOpen() bool {
	return !o.Status.Closed()
}

// Amount returns the monetary value, treating a nil value as 0.
func (o *Opportunity) Amount() float64 {
	if o.Value == nil {
		return 0
	}
	return *o.Value
}

// ApplyStatusEffects sets the probability and won/lost bookkeeping that a
// stage carries with it. Probability is forced to 100 on closed-won and 0 on
// closed-lost; other stages leave it untouched.
func (o *Opportunity) ApplyStatusEffects(status OpportunityStatus, wonDate *time.Time, lostReason string, now time.Time) {
	o.Status = status
	switch status {
	case StatusClosedWon:
		o.Probability = 100
		if wonDate != nil {
			o.WonDate = wonDate
		} else if o.WonDate == nil {
			t := now
			o.WonDate = &t
		}
	case StatusClosedLost:
		o.Probability = 0
		if lostReason != "" {
			o.LostReason = lostReason
		} else if o.LostReason == "" {
			o.LostReason = "Not specified"
		}
	}
}
