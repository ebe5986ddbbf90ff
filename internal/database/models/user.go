package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity. Identities are created inactive
// and org-less on first sign-up; only seat admission (payment
// provisioning, invite redemption, or an admin grant) flips IsActive.
type User struct {
	Base
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	Name           string     `json:"name"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	IsActive       bool       `gorm:"default:false" json:"is_active"`
	IsAdmin        bool       `gorm:"default:false" json:"is_admin"`

	SubscriptionTier      string     `json:"subscription_tier,omitempty"`
	AccessGrantedAt       *time.Time `json:"access_granted_at,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (User) TableName() string {
	return "users"
}
